package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"codeberg.org/snonux/ankilex/internal/anki"
	"codeberg.org/snonux/ankilex/internal/batch"
	"codeberg.org/snonux/ankilex/internal/dictionary"
	"codeberg.org/snonux/ankilex/internal/dictionary/youdao"
	"codeberg.org/snonux/ankilex/internal/domparse"
	"codeberg.org/snonux/ankilex/internal/testutil"
)

const seePage = `<html><body>
<div id="phrsListTab"><h2 class="wordbook-js"><span class="keyword">see</span>
<div class="baav"><span class="pronounce">英<span class="phonetic">/siː/</span></span></div></h2></div>
<div id="collinsResult"><ul class="ol"><li>
<div class="collinsMajorTrans"><p><span class="additional">v.</span> to look at and comprehend</p></div>
</li></ul></div>
</body></html>`

func newYoudaoServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/w/see" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, seePage)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestProcessor(t *testing.T, cfg Config) *Processor {
	t.Helper()
	p, err := New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(p.Close)
	return p
}

type stubProvider struct {
	audioBase string
}

func (s *stubProvider) ID() string                   { return "stub" }
func (s *stubProvider) Name() string                 { return "Stub" }
func (s *stubProvider) SupportedLanguages() []string { return []string{"en"} }

func (s *stubProvider) Lookup(ctx context.Context, word string) (*dictionary.Entry, error) {
	if word == "fail" {
		return nil, errors.New("lookup failed")
	}
	return dictionary.NewEntry(word, "Stub", dictionary.Extraction{
		Definitions: []dictionary.Definition{{PartOfSpeech: "n.", Text: "meaning of " + word}},
		Pronunciations: []dictionary.Pronunciation{
			{Text: "/" + word + "/", Type: dictionary.PronunciationUK, AudioURL: s.audioBase + "/" + word + ".mp3"},
		},
		Metadata: map[string]any{dictionary.MetaTags: []string{"CET4"}},
	}), nil
}

func TestLookupRoutesByLanguage(t *testing.T) {
	server := newYoudaoServer(t)

	cfg := DefaultConfig()
	cfg.YoudaoURL = server.URL + "/w/"
	p := newTestProcessor(t, cfg)

	entry, err := p.Lookup(context.Background(), " see ", "en")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if entry.Word != "see" || entry.Provider != youdao.ProviderName {
		t.Errorf("unexpected entry %s/%s", entry.Word, entry.Provider)
	}
	if len(entry.Definitions) != 1 || entry.Definitions[0].Text != "to look at and comprehend" {
		t.Errorf("unexpected definitions %+v", entry.Definitions)
	}
	if len(entry.Pronunciations) != 1 || entry.Pronunciations[0].Type != dictionary.PronunciationUK {
		t.Errorf("unexpected pronunciations %+v", entry.Pronunciations)
	}
}

func TestAudioFailuresDoNotBlockLookups(t *testing.T) {
	server := newYoudaoServer(t)
	audioServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer audioServer.Close()

	cfg := DefaultConfig()
	cfg.YoudaoURL = server.URL + "/w/"
	cfg.AudioCacheDir = t.TempDir()
	p := newTestProcessor(t, cfg)

	// enough failures to open the audio breaker
	for i := 0; i < int(cfg.HTTP.MaxFailures)+1; i++ {
		if _, err := p.audio.Fetch(context.Background(), fmt.Sprintf("%s/%d.mp3", audioServer.URL, i)); err == nil {
			t.Fatal("expected audio download to fail")
		}
	}

	if _, err := p.Lookup(context.Background(), "see", "en"); err != nil {
		t.Fatalf("Lookup() after audio failures error = %v", err)
	}
}

func TestLookupSurfaceMode(t *testing.T) {
	server := newYoudaoServer(t)

	cfg := DefaultConfig()
	cfg.YoudaoURL = server.URL + "/w/"
	cfg.ParserMode = domparse.ModeSurface
	p := newTestProcessor(t, cfg)

	entry, err := p.Lookup(context.Background(), "see", "")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if len(entry.Definitions) != 1 || entry.Definitions[0].PartOfSpeech != "v." {
		t.Errorf("unexpected definitions %+v", entry.Definitions)
	}
	if _, ok := p.Table().Get(youdao.ProviderID); !ok {
		t.Error("youdao extractor not registered in the parser table")
	}
}

func TestLookupErrors(t *testing.T) {
	server := newYoudaoServer(t)

	tests := []struct {
		name      string
		providers map[string]string
		word      string
		lang      string
		wantErr   error
	}{
		{
			name:      "no provider for language",
			providers: map[string]string{"en": "youdao"},
			word:      "ябълка",
			lang:      "bg",
			wantErr:   ErrNoProviderForLanguage,
		},
		{
			name:      "unknown provider",
			providers: map[string]string{"en": "missing"},
			word:      "see",
			lang:      "en",
			wantErr:   dictionary.ErrUnknownProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.YoudaoURL = server.URL + "/w/"
			cfg.Providers = tt.providers
			p := newTestProcessor(t, cfg)

			_, err := p.Lookup(context.Background(), tt.word, tt.lang)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Lookup() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLookupInvalidWord(t *testing.T) {
	p := newTestProcessor(t, DefaultConfig())

	if _, err := p.Lookup(context.Background(), "  ", "en"); err == nil {
		t.Error("expected error for empty word")
	}
	if _, err := p.LookupWithProvider(context.Background(), strings.Repeat("x", 101), "youdao"); err == nil {
		t.Error("expected error for overlong word")
	}
}

func TestResolveProviderAuto(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers = map[string]string{"en": "youdao", "de": "Gemini"}
	p := newTestProcessor(t, cfg)

	id, lang, err := p.ResolveProvider("Ich möchte heute Abend ein Buch lesen", LanguageAuto)
	if err != nil {
		t.Fatalf("ResolveProvider() error = %v", err)
	}
	if lang != "de" || id != "gemini" {
		t.Errorf("ResolveProvider() = %s, %s; want gemini, de", id, lang)
	}
}

func TestResolveProviderConfiguredAuto(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultLanguage = LanguageAuto
	cfg.Providers = map[string]string{"en": "youdao", "ru": "openai"}
	p := newTestProcessor(t, cfg)

	_, lang, err := p.ResolveProvider("Я хочу прочитать эту книгу сегодня вечером", "")
	if err != nil {
		t.Fatalf("ResolveProvider() error = %v", err)
	}
	if lang != "ru" {
		t.Errorf("detected %s, want ru", lang)
	}
}

func TestResolveProviderAutoFallsBack(t *testing.T) {
	// One mapped language leaves nothing to choose between
	p := newTestProcessor(t, DefaultConfig())

	id, lang, err := p.ResolveProvider("see", LanguageAuto)
	if err != nil {
		t.Fatalf("ResolveProvider() error = %v", err)
	}
	if lang != "en" || id != youdao.ProviderID {
		t.Errorf("ResolveProvider() = %s, %s", id, lang)
	}
}

func TestAddNote(t *testing.T) {
	fake := testutil.NewFakeAnkiConnect(t)

	cfg := DefaultConfig()
	cfg.Anki.URL = fake.URL
	p := newTestProcessor(t, cfg)

	id, err := p.AddNote(context.Background(), testutil.SampleEntry(), 0, anki.NoteOptions{
		Deck:    "English",
		Context: "I read it yesterday",
	})
	if err != nil {
		t.Fatalf("AddNote() error = %v", err)
	}
	if id != 1496198395707 {
		t.Errorf("AddNote() id = %d", id)
	}

	req, ok := fake.LastRequest("addNote")
	if !ok {
		t.Fatal("addNote was not sent")
	}
	var params struct {
		Note anki.Note `json:"note"`
	}
	raw, _ := json.Marshal(req.Params)
	if err := json.Unmarshal(raw, &params); err != nil {
		t.Fatalf("decode params: %v", err)
	}
	if params.Note.DeckName != "English" || params.Note.Fields["Front"] != "read" {
		t.Errorf("unexpected note %+v", params.Note)
	}

	if _, err := p.AddNote(context.Background(), nil, 0, anki.NoteOptions{}); err == nil {
		t.Error("expected error for nil entry")
	}
}

func newExportProcessor(t *testing.T) (*Processor, *int32) {
	t.Helper()

	var downloads int32
	audioServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&downloads, 1)
		w.Write([]byte("ID3 fake mp3"))
	}))
	t.Cleanup(audioServer.Close)

	cfg := DefaultConfig()
	cfg.Providers = map[string]string{"en": "stub"}
	cfg.AudioCacheDir = filepath.Join(t.TempDir(), "audio")
	p := newTestProcessor(t, cfg)
	p.Registry().Register(&stubProvider{audioBase: audioServer.URL})
	return p, &downloads
}

func TestExportAPKG(t *testing.T) {
	p, downloads := newExportProcessor(t)
	outDir := t.TempDir()

	words := []batch.WordEntry{
		{Word: "see", Context: "I see it"},
		{Word: "fail"},
		{Word: "run"},
		{Word: "see"},
	}

	result, err := p.Export(context.Background(), words, ExportOptions{
		Deck:      "My Words",
		OutputDir: outDir,
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if result.Path != filepath.Join(outDir, "My_Words.apkg") {
		t.Errorf("unexpected path %s", result.Path)
	}
	testutil.AssertFileExists(t, result.Path)

	if result.Exported != 3 || result.WithAudio != 3 {
		t.Errorf("Exported = %d, WithAudio = %d", result.Exported, result.WithAudio)
	}
	if len(result.Failed) != 1 || result.Failed[0].Word != "fail" {
		t.Errorf("unexpected failures %+v", result.Failed)
	}
	// "see" twice shares a cached download
	if got := atomic.LoadInt32(downloads); got != 2 {
		t.Errorf("expected 2 audio downloads, got %d", got)
	}
}

func TestExportCSV(t *testing.T) {
	p, downloads := newExportProcessor(t)

	result, err := p.Export(context.Background(), []batch.WordEntry{{Word: "see", Context: "I see it"}}, ExportOptions{
		Deck:      "Default",
		OutputDir: t.TempDir(),
		CSV:       true,
		SkipAudio: true,
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if filepath.Ext(result.Path) != ".csv" {
		t.Errorf("unexpected path %s", result.Path)
	}
	testutil.AssertFileContains(t, result.Path, "meaning of see")
	testutil.AssertFileContains(t, result.Path, "I see it")
	testutil.AssertFileContains(t, result.Path, "ankilex CET4")
	if atomic.LoadInt32(downloads) != 0 {
		t.Errorf("audio downloaded despite SkipAudio")
	}
}

func TestExportNothing(t *testing.T) {
	p, _ := newExportProcessor(t)

	_, err := p.Export(context.Background(), []batch.WordEntry{{Word: "fail"}}, ExportOptions{
		OutputDir: t.TempDir(),
	})
	if err == nil {
		t.Error("expected error when every word fails")
	}
}

func TestExportArchivesPrevious(t *testing.T) {
	p, _ := newExportProcessor(t)
	outDir := t.TempDir()
	opts := ExportOptions{Deck: "Default", OutputDir: outDir, CSV: true, SkipAudio: true}

	first, err := p.Export(context.Background(), []batch.WordEntry{{Word: "see"}}, opts)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if first.Archived != "" {
		t.Errorf("nothing to archive, got %s", first.Archived)
	}

	second, err := p.Export(context.Background(), []batch.WordEntry{{Word: "run"}}, opts)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if second.Archived == "" {
		t.Fatal("previous export was not archived")
	}
	testutil.AssertFileContains(t, second.Archived, "meaning of see")
	testutil.AssertFileContains(t, second.Path, "meaning of run")
}
