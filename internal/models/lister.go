package models

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Lister handles listing the OpenAI models the openai dictionary provider can use
type Lister struct {
	apiKey string
	client *openai.Client
}

// NewLister creates a new model lister. An empty baseURL uses the OpenAI API.
func NewLister(apiKey, baseURL string) *Lister {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Lister{
		apiKey: apiKey,
		client: openai.NewClientWithConfig(config),
	}
}

// Categorize splits model ids into chat models and everything else, both sorted
func Categorize(ids []string) (chat, other []string) {
	for _, id := range ids {
		switch {
		case strings.Contains(id, "tts"), strings.Contains(id, "audio"),
			strings.Contains(id, "dall-e"), strings.Contains(id, "embedding"),
			strings.Contains(id, "whisper"), strings.Contains(id, "image"):
			other = append(other, id)
		case strings.Contains(id, "gpt"), strings.Contains(id, "chat"),
			strings.HasPrefix(id, "o1"), strings.HasPrefix(id, "o3"), strings.HasPrefix(id, "o4"):
			chat = append(chat, id)
		default:
			other = append(other, id)
		}
	}
	sort.Strings(chat)
	sort.Strings(other)
	return chat, other
}

// ChatModels returns the sorted chat model ids available to the key
func (l *Lister) ChatModels(ctx context.Context) ([]string, error) {
	if l.apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure in .ankilex.yaml")
	}

	models, err := l.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	ids := make([]string, 0, len(models.Models))
	for _, model := range models.Models {
		ids = append(ids, model.ID)
	}
	chat, _ := Categorize(ids)
	return chat, nil
}

// ListAvailableModels prints the chat models usable for dictionary lookups
func (l *Lister) ListAvailableModels(ctx context.Context, w io.Writer) error {
	chat, err := l.ChatModels(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Chat models usable by the openai dictionary provider:")
	if len(chat) == 0 {
		fmt.Fprintln(w, "  No chat models found")
		return nil
	}
	for _, model := range chat {
		fmt.Fprintf(w, "  %s\n", model)
	}
	return nil
}
