package anki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"codeberg.org/snonux/ankilex/internal/dictionary"
)

// DefaultConnectURL is where AnkiConnect listens by default
const DefaultConnectURL = "http://127.0.0.1:8765"

const connectAPIVersion = 6

// ErrNotAvailable is returned when AnkiConnect cannot be reached
var ErrNotAvailable = errors.New("could not connect to Anki; check that Anki is running and AnkiConnect is installed")

// ConnectConfig configures the AnkiConnect client
type ConnectConfig struct {
	URL      string
	Deck     string            // Default deck for new notes
	NoteType string            // Default note type for new notes
	FieldMap map[string]string // Anki field name -> lex field
	Tags     []string
	Timeout  time.Duration
}

// DefaultConnectConfig mirrors the defaults of a fresh install
func DefaultConnectConfig() ConnectConfig {
	return ConnectConfig{
		URL:      DefaultConnectURL,
		Deck:     "Default",
		NoteType: "Basic",
		FieldMap: map[string]string{
			"Front": FieldWord,
			"Back":  FieldDefinition,
		},
		Tags:    []string{"ankilex"},
		Timeout: 10 * time.Second,
	}
}

// ConnectClient talks to the AnkiConnect add-on over its local HTTP API
type ConnectClient struct {
	config ConnectConfig
	http   *http.Client
	logger *zap.Logger
}

// NewConnectClient creates a client. Empty config fields take the defaults.
func NewConnectClient(config ConnectConfig, httpClient *http.Client, logger *zap.Logger) *ConnectClient {
	def := DefaultConnectConfig()
	if config.URL == "" {
		config.URL = def.URL
	}
	if config.Deck == "" {
		config.Deck = def.Deck
	}
	if config.NoteType == "" {
		config.NoteType = def.NoteType
	}
	if len(config.FieldMap) == 0 {
		config.FieldMap = def.FieldMap
	}
	if config.Tags == nil {
		config.Tags = def.Tags
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectClient{config: config, http: httpClient, logger: logger}
}

// Config returns the effective configuration
func (c *ConnectClient) Config() ConnectConfig {
	return c.config
}

type connectRequest struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params"`
}

type connectResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// invoke runs one AnkiConnect action and decodes its result into out
func (c *ConnectClient) invoke(ctx context.Context, action string, params any, out any) error {
	if params == nil {
		params = map[string]any{}
	}
	body, err := json.Marshal(connectRequest{Action: action, Version: connectAPIVersion, Params: params})
	if err != nil {
		return fmt.Errorf("failed to encode AnkiConnect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create AnkiConnect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("AnkiConnect request", zap.String("action", action))

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrNotAvailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("AnkiConnect request failed: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read AnkiConnect response: %w", err)
	}

	var decoded connectResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("failed to decode AnkiConnect response: %w", err)
	}
	if decoded.Error != nil && *decoded.Error != "" {
		return fmt.Errorf("AnkiConnect %s: %s", action, *decoded.Error)
	}

	if out == nil || len(decoded.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(decoded.Result, out); err != nil {
		return fmt.Errorf("failed to decode AnkiConnect %s result: %w", action, err)
	}
	return nil
}

// Version returns the AnkiConnect API version
func (c *ConnectClient) Version(ctx context.Context) (int, error) {
	var v int
	err := c.invoke(ctx, "version", nil, &v)
	return v, err
}

// IsAvailable reports whether AnkiConnect answers
func (c *ConnectClient) IsAvailable(ctx context.Context) bool {
	if _, err := c.Version(ctx); err != nil {
		c.logger.Warn("AnkiConnect check failed", zap.Error(err))
		return false
	}
	return true
}

// DeckNames lists the decks of the open collection
func (c *ConnectClient) DeckNames(ctx context.Context) ([]string, error) {
	var decks []string
	err := c.invoke(ctx, "deckNames", nil, &decks)
	return decks, err
}

// ModelNames lists the note types
func (c *ConnectClient) ModelNames(ctx context.Context) ([]string, error) {
	var models []string
	err := c.invoke(ctx, "modelNames", nil, &models)
	return models, err
}

// ModelFieldNames lists the fields of a note type
func (c *ConnectClient) ModelFieldNames(ctx context.Context, model string) ([]string, error) {
	var fields []string
	err := c.invoke(ctx, "modelFieldNames", map[string]any{"modelName": model}, &fields)
	return fields, err
}

// AddNote adds note and returns its id
func (c *ConnectClient) AddNote(ctx context.Context, note Note) (int64, error) {
	var id int64
	if err := c.invoke(ctx, "addNote", map[string]any{"note": note}, &id); err != nil {
		return 0, err
	}
	c.logger.Info("Note added", zap.Int64("id", id), zap.String("deck", note.DeckName))
	return id, nil
}

// CreateNoteFromEntry maps entry into a note using the configured field map and adds it.
// defIndex selects a single definition; an out of range index exports all of them.
func (c *ConnectClient) CreateNoteFromEntry(ctx context.Context, entry *dictionary.Entry, opts NoteOptions, defIndex int) (int64, error) {
	note := BuildNote(entry, NoteSettings{
		Deck:     c.config.Deck,
		NoteType: c.config.NoteType,
		FieldMap: c.config.FieldMap,
		Tags:     c.config.Tags,
	}, opts, defIndex)

	if strings.TrimSpace(note.DeckName) == "" {
		return 0, errors.New("no deck configured")
	}
	return c.AddNote(ctx, note)
}
