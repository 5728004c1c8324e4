// Package upstage provides a document parsing adapter backed by the
// Upstage document digitization API. It extracts text and page grounding
// from PDF bytes; the core never sees the wire format.
package upstage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/custodia-labs/paperdex-cli/internal/core/domain"
	"github.com/custodia-labs/paperdex-cli/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.upstage.ai/v1/document-ai"
	DefaultTimeout = 5 * time.Minute
)

// Config holds configuration for the parsing service.
type Config struct {
	// APIKey is the bearer token (required).
	APIKey string

	// BaseURL is the API base URL.
	BaseURL string

	// Timeout is the request timeout. Parsing large PDFs is slow;
	// the default is generous.
	Timeout time.Duration
}

// Parser extracts text from documents via the parsing API.
type Parser struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// parseResponse is the API response format.
type parseResponse struct {
	Content   string `json:"content"`
	Pages     int    `json:"pages"`
	Grounding map[string]struct {
		Page int    `json:"page"`
		Box  string `json:"box,omitempty"`
	} `json:"grounding,omitempty"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewParser creates a new parsing adapter.
func NewParser(cfg Config) (*Parser, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("parser: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Parser{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}, nil
}

// Parse uploads the file content and returns the extracted text, page
// count, and grounding hints.
func (p *Parser) Parse(ctx context.Context, content []byte, filename string) (*driven.ParsedDocument, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("document", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close form writer: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.baseURL+"/document-parse",
		&buf,
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed parseResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if parsed.Error != nil {
		return nil, fmt.Errorf("parser error: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("parser error (status %d): %s", resp.StatusCode, string(body))
	}

	doc := &driven.ParsedDocument{
		Content: parsed.Content,
		Pages:   parsed.Pages,
	}
	if doc.Pages < 1 {
		doc.Pages = 1
	}
	if len(parsed.Grounding) > 0 {
		doc.Grounding = make(domain.Grounding, len(parsed.Grounding))
		for id, el := range parsed.Grounding {
			doc.Grounding[id] = domain.GroundingElement{Page: el.Page, Box: el.Box}
		}
	}

	return doc, nil
}

// Close releases resources.
func (p *Parser) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
