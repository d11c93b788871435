package domparse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"codeberg.org/snonux/ankilex/internal/dictionary"
)

// headingParser turns every <h1> into a definition
type headingParser struct{}

func (headingParser) ID() string { return "heading" }

func (headingParser) ParseDocument(doc *goquery.Document) dictionary.Extraction {
	ex := dictionary.EmptyExtraction()
	doc.Find("h1").Each(func(_ int, s *goquery.Selection) {
		ex.Definitions = append(ex.Definitions, dictionary.Definition{Text: strings.TrimSpace(s.Text())})
	})
	return ex
}

const sampleHTML = `<html><body><h1>first</h1><h1> second </h1></body></html>`

func assertHeadings(t *testing.T, ex dictionary.Extraction) {
	t.Helper()
	if len(ex.Definitions) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(ex.Definitions))
	}
	if ex.Definitions[0].Text != "first" || ex.Definitions[1].Text != "second" {
		t.Errorf("unexpected definitions: %+v", ex.Definitions)
	}
}

func assertEmpty(t *testing.T, ex dictionary.Extraction) {
	t.Helper()
	if ex.Definitions == nil || ex.Pronunciations == nil || ex.Metadata == nil {
		t.Fatal("expected non-nil empty collections")
	}
	if len(ex.Definitions) != 0 || len(ex.Pronunciations) != 0 || len(ex.Metadata) != 0 {
		t.Errorf("expected empty extraction, got %+v", ex)
	}
}

func TestInlineParser(t *testing.T) {
	p := NewInlineParser(nil)
	assertHeadings(t, p.Parse(context.Background(), sampleHTML, headingParser{}))
}

func TestSurfaceParser(t *testing.T) {
	parser, err := New(Options{Mode: ModeSurface, Table: NewTable(headingParser{})})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer parser.(*DelegatingParser).Close()

	assertHeadings(t, parser.Parse(context.Background(), sampleHTML, headingParser{}))
}

func TestSurfaceUnknownIDDegrades(t *testing.T) {
	parser, _ := New(Options{Mode: ModeSurface, Table: NewTable()})
	defer parser.(*DelegatingParser).Close()

	assertEmpty(t, parser.Parse(context.Background(), sampleHTML, headingParser{}))
}

func TestSurfaceWithoutTableDegrades(t *testing.T) {
	parser, _ := New(Options{Mode: ModeSurface})
	assertEmpty(t, parser.Parse(context.Background(), sampleHTML, headingParser{}))
}

func TestDelegatingParserProvisionsOnce(t *testing.T) {
	var calls int32
	table := NewTable(headingParser{})
	p := NewDelegatingParser(func() (Transport, error) {
		atomic.AddInt32(&calls, 1)
		return StartSurface(table, nil), nil
	}, time.Second, nil)
	defer p.Close()

	if atomic.LoadInt32(&calls) != 0 {
		t.Fatal("surface provisioned before first use")
	}

	for i := 0; i < 3; i++ {
		assertHeadings(t, p.Parse(context.Background(), sampleHTML, headingParser{}))
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected 1 provisioning, got %d", got)
	}
}

func TestDelegatingParserFailedProvisionIsNotRetried(t *testing.T) {
	var calls int32
	p := NewDelegatingParser(func() (Transport, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("boom")
	}, time.Second, nil)

	assertEmpty(t, p.Parse(context.Background(), sampleHTML, headingParser{}))
	assertEmpty(t, p.Parse(context.Background(), sampleHTML, headingParser{}))

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected 1 provisioning attempt, got %d", got)
	}
}

type stuckTransport struct{}

func (stuckTransport) RoundTrip(ctx context.Context, req Request) (Response, error) {
	<-ctx.Done()
	return Response{}, ctx.Err()
}

type nullTransport struct{}

func (nullTransport) RoundTrip(ctx context.Context, req Request) (Response, error) {
	return Response{}, nil
}

func TestDelegatingParserTimeoutDegrades(t *testing.T) {
	p := NewDelegatingParser(func() (Transport, error) {
		return stuckTransport{}, nil
	}, 20*time.Millisecond, nil)

	start := time.Now()
	assertEmpty(t, p.Parse(context.Background(), sampleHTML, headingParser{}))
	if time.Since(start) > 2*time.Second {
		t.Error("timeout was not applied")
	}
}

func TestDelegatingParserNullResultDegrades(t *testing.T) {
	p := NewDelegatingParser(func() (Transport, error) {
		return nullTransport{}, nil
	}, time.Second, nil)

	assertEmpty(t, p.Parse(context.Background(), sampleHTML, headingParser{}))
}

func TestSurfaceClosed(t *testing.T) {
	s := StartSurface(NewTable(headingParser{}), nil)
	s.Close()
	s.Close()

	_, err := s.RoundTrip(context.Background(), Request{HTML: sampleHTML, ID: "heading"})
	if !errors.Is(err, ErrSurfaceClosed) {
		t.Errorf("expected ErrSurfaceClosed, got %v", err)
	}
}

func TestRemoteParser(t *testing.T) {
	server := httptest.NewServer(NewSurfaceHandler(NewTable(headingParser{}), nil))
	defer server.Close()

	parser, err := New(Options{Mode: ModeAuto, SurfaceURL: server.URL})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := parser.(*DelegatingParser); !ok {
		t.Fatalf("auto mode with surface URL should delegate, got %T", parser)
	}

	assertHeadings(t, parser.Parse(context.Background(), sampleHTML, headingParser{}))
}

// taggedParser emits typed metadata and both nil and empty example lists
type taggedParser struct{}

func (taggedParser) ID() string { return "tagged" }

func (taggedParser) ParseDocument(doc *goquery.Document) dictionary.Extraction {
	ex := dictionary.EmptyExtraction()
	ex.Definitions = []dictionary.Definition{
		{Text: "with none", Examples: nil},
		{Text: "with empty", Examples: []dictionary.Example{}},
		{Text: "with one", Examples: []dictionary.Example{{Text: "an example"}}},
	}
	ex.Metadata[dictionary.MetaFrequency] = 4
	ex.Metadata[dictionary.MetaTags] = []string{"CET4", "TEM4"}
	return ex
}

func TestRemoteParserMatchesInline(t *testing.T) {
	server := httptest.NewServer(NewSurfaceHandler(NewTable(taggedParser{}), nil))
	defer server.Close()

	remote, err := New(Options{Mode: ModeRemote, SurfaceURL: server.URL})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	want := NewInlineParser(nil).Parse(context.Background(), sampleHTML, taggedParser{})
	got := remote.Parse(context.Background(), sampleHTML, taggedParser{})

	if !reflect.DeepEqual(got, want) {
		t.Errorf("remote extraction differs from inline\n got: %#v\nwant: %#v", got, want)
	}
	if _, ok := got.Metadata[dictionary.MetaFrequency].(int); !ok {
		t.Errorf("frequency type = %T, want int", got.Metadata[dictionary.MetaFrequency])
	}
	if _, ok := got.Metadata[dictionary.MetaTags].([]string); !ok {
		t.Errorf("tags type = %T, want []string", got.Metadata[dictionary.MetaTags])
	}
}

func TestRemoteParserServerErrorDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	parser, _ := New(Options{Mode: ModeRemote, SurfaceURL: server.URL})
	assertEmpty(t, parser.Parse(context.Background(), sampleHTML, headingParser{}))
}

func TestSurfaceHandler(t *testing.T) {
	handler := NewSurfaceHandler(NewTable(headingParser{}), nil)

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
		wantNull   bool
	}{
		{"known id", http.MethodPost, `{"html":"<h1>a</h1>","id":"heading"}`, http.StatusOK, false},
		{"unknown id", http.MethodPost, `{"html":"<h1>a</h1>","id":"nope"}`, http.StatusOK, true},
		{"malformed", http.MethodPost, `{not json`, http.StatusBadRequest, false},
		{"wrong method", http.MethodGet, ``, http.StatusMethodNotAllowed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, ParsePath, bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp Response
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if tt.wantNull && resp.Results != nil {
				t.Errorf("expected null results, got %+v", resp.Results)
			}
			if !tt.wantNull && (resp.Results == nil || len(resp.Results.Definitions) != 1) {
				t.Errorf("expected one definition, got %+v", resp.Results)
			}
		})
	}
}

func TestNewModes(t *testing.T) {
	if p, err := New(Options{}); err != nil {
		t.Errorf("default mode error = %v", err)
	} else if _, ok := p.(*InlineParser); !ok {
		t.Errorf("default mode should be inline, got %T", p)
	}

	if _, err := New(Options{Mode: ModeRemote}); err == nil {
		t.Error("remote mode without URL should fail")
	}

	if _, err := New(Options{Mode: "bogus"}); err == nil {
		t.Error("unknown mode should fail")
	}
}
