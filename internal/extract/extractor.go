// Package extract wraps the external AI collaborator that turns raw article
// text into quote-like items annotated with candidate entities and topics.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"quotewire/internal/models"

	openai "github.com/sashabaranov/go-openai"
)

// Articles longer than this are truncated before extraction.
const maxTextLength = 12000

// Request carries one article's text and metadata to the collaborator.
type Request struct {
	URL         string
	Title       string
	Text        string
	PublishedAt *time.Time
}

// Extractor is the narrow interface the pipeline consumes.
type Extractor interface {
	ExtractQuotes(ctx context.Context, req Request) ([]models.ExtractedQuote, error)
}

const systemPrompt = `You extract direct quotations from news articles.
Return JSON: {"quotes": [{"text": "...", "speaker": "...",
"entities": [{"name": "...", "type": "person|organization|place|other"}],
"keywords": ["..."], "topics": ["..."]}]}.
Only include statements actually quoted or clearly attributed in the text.
Entities are the named people/organizations the quote concerns. Keywords and
topics are your own suggested vocabulary terms for the quote. Return
{"quotes": []} when the article contains no quotations.`

// OpenAIExtractor is the production implementation.
type OpenAIExtractor struct {
	client *openai.Client
	model  string
}

func NewOpenAIExtractor(apiKey, model string) *OpenAIExtractor {
	return &OpenAIExtractor{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (e *OpenAIExtractor) ExtractQuotes(ctx context.Context, req Request) ([]models.ExtractedQuote, error) {
	text := req.Text
	if len(text) > maxTextLength {
		text = text[:maxTextLength]
	}

	var meta strings.Builder
	fmt.Fprintf(&meta, "Title: %s\nURL: %s\n", req.Title, req.URL)
	if req.PublishedAt != nil {
		fmt.Fprintf(&meta, "Published: %s\n", req.PublishedAt.Format("2006-01-02"))
	}
	meta.WriteString("\n")
	meta.WriteString(text)

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: meta.String()},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("extraction request failed: %v", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("extraction returned no choices")
	}

	var parsed struct {
		Quotes []models.ExtractedQuote `json:"quotes"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("extraction returned invalid JSON: %v", err)
	}

	var quotes []models.ExtractedQuote
	for _, q := range parsed.Quotes {
		if strings.TrimSpace(q.Text) == "" {
			continue
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}
