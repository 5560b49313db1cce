// Package gemini talks to the Gemini generateContent REST API. The pipeline
// only needs "a text+image understanding service that returns structured
// JSON, given a prompt"; this is the concrete implementation behind that
// contract.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Tormknd/RecipeMe/internal/pipeline"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.5-flash"
	defaultTimeout = 120 * time.Second
)

// Part is one element of a generation request: plain text or an inline image.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

// InlineData carries a base64-encoded image and its mime type.
type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// TextPart builds a text part.
func TextPart(text string) Part { return Part{Text: text} }

// ImagePart builds an inline image part from raw bytes.
func ImagePart(data []byte, mimeType string) Part {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return Part{InlineData: &InlineData{
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}}
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	Temperature      float64 `json:"temperature"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type request struct {
	Contents []struct {
		Parts []Part `json:"parts"`
	} `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings"`
}

type response struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithModel overrides the default model name.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(base string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// Client calls the generateContent endpoint. Initialized once at process
// start and injected into the extractor; read-only thereafter.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	log     *logrus.Logger
}

// NewClient creates a Gemini client bound to an API key.
func NewClient(apiKey string, log *logrus.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		model:   defaultModel,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate sends one generation request and returns the model's text output.
// A recitation or safety refusal comes back as *pipeline.PolicyBlockError so
// upper layers can classify it without string matching.
func (c *Client) Generate(ctx context.Context, parts []Part) (string, error) {
	body := request{
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			Temperature:      0.7,
		},
		SafetySettings: []safetySetting{
			{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
			{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
			{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
			{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
		},
	}
	body.Contents = make([]struct {
		Parts []Part `json:"parts"`
	}, 1)
	body.Contents[0].Parts = parts

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal generation request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	c.log.WithFields(logrus.Fields{
		"model":       c.model,
		"parts":       len(parts),
		"payload_len": len(payload),
	}).Info("Calling Gemini generateContent")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini http error: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read gemini response: %w", err)
	}

	var parsed response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode gemini response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if parsed.Error != nil {
			return "", fmt.Errorf("gemini status %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	if reason := parsed.PromptFeedback.BlockReason; reason != "" {
		c.log.WithField("block_reason", reason).Warn("Gemini blocked the prompt")
		return "", &pipeline.PolicyBlockError{Reason: reason}
	}
	if len(parsed.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in gemini response")
	}

	candidate := parsed.Candidates[0]
	if reason := candidate.FinishReason; reason == "RECITATION" || reason == "SAFETY" {
		c.log.WithField("finish_reason", reason).Warn("Gemini refused the generation")
		return "", &pipeline.PolicyBlockError{Reason: reason}
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty candidate in gemini response")
	}

	c.log.WithFields(logrus.Fields{
		"latency_ms": time.Since(start).Milliseconds(),
		"text_len":   text.Len(),
	}).Info("Gemini generation completed")
	return text.String(), nil
}
