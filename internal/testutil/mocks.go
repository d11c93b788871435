package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// AnkiRequest is a request recorded by FakeAnkiConnect
type AnkiRequest struct {
	Action  string                     `json:"action"`
	Version int                        `json:"version"`
	Params  map[string]json.RawMessage `json:"params"`
}

// FakeAnkiConnect is an httptest server speaking the AnkiConnect protocol
type FakeAnkiConnect struct {
	*httptest.Server

	mu       sync.Mutex
	Results  map[string]any    // action -> result
	Errors   map[string]string // action -> AnkiConnect error string
	Requests []AnkiRequest
}

// NewFakeAnkiConnect starts a fake AnkiConnect with a small default collection
func NewFakeAnkiConnect(t *testing.T) *FakeAnkiConnect {
	t.Helper()

	f := &FakeAnkiConnect{
		Results: map[string]any{
			"version":         6,
			"deckNames":       []string{"Default", "English"},
			"modelNames":      []string{"Basic", "Basic (and reversed card)"},
			"modelFieldNames": []string{"Front", "Back"},
			"addNote":         int64(1496198395707),
		},
		Errors: map[string]string{},
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakeAnkiConnect) handle(w http.ResponseWriter, r *http.Request) {
	var req AnkiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.Requests = append(f.Requests, req)
	result, ok := f.Results[req.Action]
	errMsg, failed := f.Errors[req.Action]
	f.mu.Unlock()

	resp := map[string]any{"result": nil, "error": nil}
	switch {
	case failed:
		resp["error"] = errMsg
	case ok:
		resp["result"] = result
	default:
		resp["error"] = "unsupported action"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// LastRequest returns the most recent request for action
func (f *FakeAnkiConnect) LastRequest(action string) (AnkiRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := len(f.Requests) - 1; i >= 0; i-- {
		if f.Requests[i].Action == action {
			return f.Requests[i], true
		}
	}
	return AnkiRequest{}, false
}
