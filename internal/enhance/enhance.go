// Package enhance calls an OpenAI-compatible chat endpoint to summarize
// and improve the free-text notes on an inventory item.
package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNotConfigured is returned when no API key has been provided.
var ErrNotConfigured = errors.New("note enhancement is not configured")

// Enhancement is the structured result of a note-enhancement call.
type Enhancement struct {
	Summary           string   `json:"summary"`
	Suggestions       []string `json:"suggestions"`
	ResultDescription string   `json:"result_description"`
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// NewClient creates an enhancement client. An empty apiKey yields a
// client whose calls fail with ErrNotConfigured.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether the client has a credential to use.
func (c *Client) Configured() bool {
	return c != nil && c.APIKey != ""
}

const systemPrompt = `You are an AI assistant specialized in organizing and enhancing notes for digital access items like streaming accounts (Netflix, Disney+, etc.).
Analyze the provided notes in the context of the item description, then:
1. Provide a concise summary of the notes.
2. Suggest additional relevant details or improvements to make the notes clearer, more complete, and consistent.
If the notes are very brief, focus on suggestions; if extensive, provide a good summary first.
Respond with a JSON object containing "summary" (string) and "suggestions" (array of strings).`

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Enhance summarizes the existing notes and suggests improvements.
// A response with neither summary nor suggestions is treated as a
// failure, never returned as a silent empty result.
func (c *Client) Enhance(ctx context.Context, existingNotes, itemDescription string) (*Enhancement, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	user := fmt.Sprintf("Item Description: %s\nExisting Notes: %s", itemDescription, existingNotes)
	body, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: user},
		},
		ResponseFormat: &respFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding enhancement request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building enhancement request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling enhancement endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("enhancement endpoint returned %d: %s", resp.StatusCode, data)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("decoding enhancement response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("enhancement endpoint returned no choices")
	}

	var out struct {
		Summary     string   `json:"summary"`
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(cr.Choices[0].Message.Content), &out); err != nil {
		return nil, fmt.Errorf("decoding enhancement content: %w", err)
	}
	if out.Summary == "" && len(out.Suggestions) == 0 {
		return nil, fmt.Errorf("failed to generate note enhancement output")
	}

	return &Enhancement{
		Summary:           out.Summary,
		Suggestions:       out.Suggestions,
		ResultDescription: describeResult(out.Summary, out.Suggestions),
	}, nil
}

// describeResult names what the model actually produced.
func describeResult(summary string, suggestions []string) string {
	switch {
	case summary != "" && len(suggestions) > 0:
		return "Notes were summarized and suggestions for improvement were provided."
	case summary != "":
		return "Notes were summarized."
	case len(suggestions) > 0:
		return "Suggestions for improvement were provided."
	default:
		return "No significant summary or suggestions were generated."
	}
}
