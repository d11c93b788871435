package domparse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// ParsePath is the route served by a remote parse surface
const ParsePath = "/parse"

// maxRequestBody caps the HTML accepted by the surface handler
const maxRequestBody = 8 << 20

// RemoteTransport reaches a parse surface over HTTP
type RemoteTransport struct {
	baseURL string
	client  *http.Client
}

// NewRemoteTransport creates a transport for the surface at baseURL
func NewRemoteTransport(baseURL string, client *http.Client) *RemoteTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// RoundTrip implements Transport
func (t *RemoteTransport) RoundTrip(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("failed to encode parse request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+ParsePath, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("failed to create parse request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("parse surface request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, fmt.Errorf("parse surface returned status %d", resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("failed to decode parse response: %w", err)
	}
	return out, nil
}

// NewSurfaceHandler serves the parse surface over HTTP
func NewSurfaceHandler(table *Table, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.HandleFunc(ParsePath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			logger.Debug("Malformed parse request", zap.Error(err))
			http.Error(w, "malformed request", http.StatusBadRequest)
			return
		}

		resp := table.Handle(req, logger)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Warn("Failed to write parse response", zap.Error(err))
		}
	})
	return mux
}
