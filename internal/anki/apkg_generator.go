package anki

import (
	"archive/zip"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"codeberg.org/snonux/ankilex/internal"
)

// Note field order inside the ankilex note type
var apkgFields = []string{"Word", "Definition", "Pronunciation", "Context", "Audio"}

// APKGGenerator creates Anki package files (.apkg)
type APKGGenerator struct {
	deckName string
	deckID   int64
	modelID  int64
	cards    []Card
	media    map[string]int // media filename -> numbered file in the package
}

// NewAPKGGenerator creates a new APKG generator
func NewAPKGGenerator(deckName string) *APKGGenerator {
	// Anki ids are millisecond timestamps
	now := time.Now().UnixMilli()
	return &APKGGenerator{
		deckName: deckName,
		deckID:   now,
		modelID:  now + 1,
		cards:    make([]Card, 0),
		media:    make(map[string]int),
	}
}

// AddCard adds a card to the generator
func (g *APKGGenerator) AddCard(card Card) {
	g.cards = append(g.cards, card)
}

// GenerateAPKG writes the package to outputPath
func (g *APKGGenerator) GenerateAPKG(outputPath string) error {
	tempDir, err := os.MkdirTemp("", "ankilex_export_*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	// Media first: note fields reference the collected filenames
	if err := g.collectMedia(tempDir); err != nil {
		return fmt.Errorf("failed to copy media files: %w", err)
	}
	if err := g.writeMediaMapping(tempDir); err != nil {
		return fmt.Errorf("failed to create media mapping: %w", err)
	}

	if err := g.createDatabase(filepath.Join(tempDir, "collection.anki2")); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := zipDirectory(tempDir, outputPath); err != nil {
		return fmt.Errorf("failed to create zip package: %w", err)
	}
	return nil
}

func (g *APKGGenerator) createDatabase(dbPath string) error {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	if err := g.insertCollection(db); err != nil {
		return fmt.Errorf("failed to insert collection: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := g.insertNotes(tx); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to insert notes and cards: %w", err)
	}
	return tx.Commit()
}

// schemaStatements is the Anki 2.1 legacy collection schema (ver 11)
var schemaStatements = []string{
	`CREATE TABLE col (
		id integer PRIMARY KEY, crt integer NOT NULL, mod integer NOT NULL,
		scm integer NOT NULL, ver integer NOT NULL, dty integer NOT NULL,
		usn integer NOT NULL, ls integer NOT NULL, conf text NOT NULL,
		models text NOT NULL, decks text NOT NULL, dconf text NOT NULL,
		tags text NOT NULL
	)`,
	`CREATE TABLE notes (
		id integer PRIMARY KEY, guid text NOT NULL, mid integer NOT NULL,
		mod integer NOT NULL, usn integer NOT NULL, tags text NOT NULL,
		flds text NOT NULL, sfld text NOT NULL, csum integer NOT NULL,
		flags integer NOT NULL, data text NOT NULL
	)`,
	`CREATE TABLE cards (
		id integer PRIMARY KEY, nid integer NOT NULL, did integer NOT NULL,
		ord integer NOT NULL, mod integer NOT NULL, usn integer NOT NULL,
		type integer NOT NULL, queue integer NOT NULL, due integer NOT NULL,
		ivl integer NOT NULL, factor integer NOT NULL, reps integer NOT NULL,
		lapses integer NOT NULL, left integer NOT NULL, odue integer NOT NULL,
		odid integer NOT NULL, flags integer NOT NULL, data text NOT NULL
	)`,
	`CREATE TABLE revlog (
		id integer PRIMARY KEY, cid integer NOT NULL, usn integer NOT NULL,
		ease integer NOT NULL, ivl integer NOT NULL, lastIvl integer NOT NULL,
		factor integer NOT NULL, time integer NOT NULL, type integer NOT NULL
	)`,
	`CREATE TABLE graves (usn integer NOT NULL, oid integer NOT NULL, type integer NOT NULL)`,
	`CREATE INDEX ix_notes_csum ON notes (csum)`,
	`CREATE INDEX ix_notes_usn ON notes (usn)`,
	`CREATE INDEX ix_cards_usn ON cards (usn)`,
	`CREATE INDEX ix_cards_nid ON cards (nid)`,
	`CREATE INDEX ix_cards_sched ON cards (did, queue, due)`,
	`CREATE INDEX ix_revlog_usn ON revlog (usn)`,
	`CREATE INDEX ix_revlog_cid ON revlog (cid)`,
}

func deckJSON(id int64, name, desc string, mod int64) map[string]any {
	return map[string]any{
		"id":               id,
		"name":             name,
		"mod":              mod,
		"desc":             desc,
		"collapsed":        false,
		"browserCollapsed": false,
		"dyn":              0,
		"conf":             1,
		"usn":              0,
		"newToday":         []int{0, 0},
		"revToday":         []int{0, 0},
		"lrnToday":         []int{0, 0},
		"timeToday":        []int{0, 0},
		"extendNew":        10,
		"extendRev":        50,
	}
}

func (g *APKGGenerator) insertCollection(db *sql.DB) error {
	now := time.Now().Unix()

	decks := map[string]any{
		"1":                             deckJSON(1, "Default", "", now),
		strconv.FormatInt(g.deckID, 10): deckJSON(g.deckID, g.deckName, "Dictionary cards exported by ankilex", now),
	}
	models := map[string]any{
		strconv.FormatInt(g.modelID, 10): g.noteType(now),
	}
	conf := map[string]any{
		"nextPos":       1,
		"estTimes":      true,
		"activeDecks":   []int64{1},
		"sortType":      "noteFld",
		"sortBackwards": false,
		"addToCur":      true,
		"curDeck":       1,
		"newSpread":     0,
		"dueCounts":     true,
		"collapseTime":  1200,
		"timeLim":       0,
		"schedVer":      1,
		"curModel":      strconv.FormatInt(g.modelID, 10),
		"dayLearnFirst": false,
	}
	dconf := map[string]any{
		"1": map[string]any{
			"id":   1,
			"name": "Default",
			"dyn":  0,
			"new": map[string]any{
				"delays": []int{1, 10}, "ints": []int{1, 4, 7}, "initialFactor": 2500,
				"perDay": 20, "order": 1, "bury": true, "separate": true,
			},
			"lapse": map[string]any{
				"delays": []int{10}, "mult": 0, "minInt": 1, "leechFails": 8, "leechAction": 0,
			},
			"rev": map[string]any{
				"perDay": 100, "ease4": 1.3, "fuzz": 0.05, "maxIvl": 36500,
				"ivlFct": 1, "bury": true, "minSpace": 1,
			},
			"timer":    0,
			"maxTaken": 60,
			"usn":      0,
			"mod":      now,
			"autoplay": true,
			"replayq":  true,
		},
	}

	encoded := make([]string, 0, 4)
	for _, v := range []any{conf, models, decks, dconf} {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		encoded = append(encoded, string(data))
	}

	_, err := db.Exec(`INSERT INTO col VALUES (1, ?, ?, ?, 11, 0, 0, 0, ?, ?, ?, ?, '{}')`,
		now, now*1000, now*1000,
		encoded[0], encoded[1], encoded[2], encoded[3],
	)
	return err
}

func (g *APKGGenerator) noteType(mod int64) map[string]any {
	flds := make([]map[string]any, 0, len(apkgFields))
	for i, name := range apkgFields {
		size := 20
		if name == "Context" {
			size = 16
		}
		flds = append(flds, map[string]any{
			"name": name, "ord": i, "sticky": false, "rtl": false,
			"font": "Arial", "size": size, "media": []string{},
		})
	}

	return map[string]any{
		"id":    g.modelID,
		"name":  "ankilex Dictionary (Recognition + Recall)",
		"type":  0,
		"mod":   mod,
		"usn":   -1,
		"sortf": 0,
		"did":   g.deckID,
		// Recognition needs Word, Recall needs Definition
		"req":       [][]any{{0, "all", []int{0}}, {1, "all", []int{1}}},
		"vers":      []int{},
		"tags":      []string{},
		"latexPre":  "\\documentclass[12pt]{article}\n\\special{papersize=3in,5in}\n\\usepackage[utf8]{inputenc}\n\\usepackage{amssymb,amsmath}\n\\pagestyle{empty}\n\\setlength{\\parindent}{0in}\n\\begin{document}",
		"latexPost": "\\end{document}",
		"flds":      flds,
		"tmpls": []map[string]any{
			{"name": "Recognition", "ord": 0, "qfmt": recognitionFront, "afmt": recognitionBack, "did": nil, "bqfmt": "", "bafmt": ""},
			{"name": "Recall", "ord": 1, "qfmt": recallFront, "afmt": recallBack, "did": nil, "bqfmt": "", "bafmt": ""},
		},
		"css": cardCSS,
	}
}

const recognitionFront = `<div class="word">{{Word}}</div>
{{#Pronunciation}}<div class="pron">{{Pronunciation}}</div>{{/Pronunciation}}
{{#Context}}<div class="context">{{Context}}</div>{{/Context}}`

const recognitionBack = `{{FrontSide}}
<hr id="answer">
<div class="definition">{{Definition}}</div>
{{#Audio}}<div class="audio">{{Audio}}</div>{{/Audio}}`

const recallFront = `<div class="definition">{{Definition}}</div>`

const recallBack = `{{FrontSide}}
<hr id="answer">
<div class="word">{{Word}}</div>
{{#Pronunciation}}<div class="pron">{{Pronunciation}}</div>{{/Pronunciation}}
{{#Audio}}<div class="audio">{{Audio}}</div>{{/Audio}}`

const cardCSS = `.card {
  font-family: Arial, sans-serif;
  font-size: 20px;
  text-align: center;
  color: #333;
  background-color: white;
}
.word { font-size: 32px; font-weight: bold; color: #2c3e50; margin: 20px 0; }
.pron { color: #7f8c8d; }
.context { font-size: 16px; font-style: italic; color: #7f8c8d; margin-top: 12px; }
.definition { text-align: left; max-width: 640px; margin: 0 auto; }
.definition ul { font-size: 16px; }
hr#answer { margin: 30px 0; border: 0; border-top: 1px solid #ecf0f1; }`

func (g *APKGGenerator) insertNotes(tx *sql.Tx) error {
	now := time.Now()

	noteStmt, err := tx.Prepare(`INSERT INTO notes VALUES (?, ?, ?, ?, -1, ?, ?, ?, 0, 0, '')`)
	if err != nil {
		return err
	}
	defer noteStmt.Close()

	// New cards: type, queue, ivl, factor, reps, lapses, left, odue, odid, flags are all 0
	cardStmt, err := tx.Prepare(`INSERT INTO cards VALUES (?, ?, ?, ?, ?, -1, 0, 0, ?, 0, 0, 0, 0, 0, 0, 0, 0, '')`)
	if err != nil {
		return err
	}
	defer cardStmt.Close()

	for i, card := range g.cards {
		// Room for the note and its two cards
		noteID := now.UnixMilli() + int64(i*3)

		audioField := ""
		if name, ok := g.mediaName(card.AudioFile); ok {
			audioField = fmt.Sprintf("[sound:%s]", name)
		}

		fields := strings.Join([]string{
			card.Word,
			card.Definition,
			card.Pronunciation,
			card.Context,
			audioField,
		}, "\x1f")

		tags := ""
		if len(card.Tags) > 0 {
			tags = " " + strings.Join(card.Tags, " ") + " "
		}

		if _, err := noteStmt.Exec(noteID, "alx_"+internal.GenerateCardID(card.Word), g.modelID, now.Unix(), tags, fields, card.Word); err != nil {
			return fmt.Errorf("failed to insert note %q: %w", card.Word, err)
		}

		for ord := 0; ord < 2; ord++ {
			cardID := noteID + int64(ord) + 1
			if _, err := cardStmt.Exec(cardID, noteID, g.deckID, ord, now.Unix(), noteID+int64(ord)); err != nil {
				return fmt.Errorf("failed to insert card %q: %w", card.Word, err)
			}
		}
	}

	return nil
}

func (g *APKGGenerator) mediaName(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	name := filepath.Base(path)
	_, ok := g.media[name]
	return name, ok
}

// collectMedia copies every referenced media file into dir under its package number
func (g *APKGGenerator) collectMedia(dir string) error {
	next := 0
	for _, card := range g.cards {
		if card.AudioFile == "" || !fileExists(card.AudioFile) {
			continue
		}
		name := filepath.Base(card.AudioFile)
		if _, seen := g.media[name]; seen {
			continue
		}
		if err := copyFile(card.AudioFile, filepath.Join(dir, strconv.Itoa(next))); err != nil {
			return fmt.Errorf("failed to copy audio file %s: %w", card.AudioFile, err)
		}
		g.media[name] = next
		next++
	}
	return nil
}

func (g *APKGGenerator) writeMediaMapping(dir string) error {
	mapping := make(map[string]string, len(g.media))
	for name, num := range g.media {
		mapping[strconv.Itoa(num)] = name
	}
	data, err := json.Marshal(mapping)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "media"), data, 0644)
}

func zipDirectory(dir, outputPath string) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	archive := zip.NewWriter(out)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := addZipFile(archive, filepath.Join(dir, e.Name()), e.Name()); err != nil {
			return err
		}
	}
	return archive.Close()
}

func addZipFile(archive *zip.Writer, path, name string) error {
	w, err := archive.Create(name)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
