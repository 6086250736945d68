package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Gemini calls the Generative Language REST API directly. The search
// grounding tool is always enabled so answers come back with citation
// metadata.
type Gemini struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

var _ Provider = (*Gemini)(nil)

// NewGemini creates a Gemini provider for the given API key and model.
func NewGemini(apiKey, model string) *Gemini {
	return &Gemini{
		// The gateway enforces its own deadline; this is a safety net for
		// abandoned calls so their sockets are eventually released.
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    geminiBaseURL,
		apiKey:     apiKey,
		model:      model,
	}
}

// Name identifies this provider in results and logs.
func (g *Gemini) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiTool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

type geminiGenerateRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Tools             []geminiTool    `json:"tools,omitempty"`
}

type geminiWebChunk struct {
	URI         string `json:"uri"`
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	Description string `json:"description"`
}

type geminiGroundingChunk struct {
	Web *geminiWebChunk `json:"web"`
}

type geminiCandidate struct {
	Content           geminiContent `json:"content"`
	GroundingMetadata *struct {
		GroundingChunks []geminiGroundingChunk `json:"groundingChunks"`
	} `json:"groundingMetadata"`
}

type geminiGenerateResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

// Generate performs one generateContent call with search grounding.
func (g *Gemini) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	payload := geminiGenerateRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: req.Prompt}}}},
		Tools:    []geminiTool{{GoogleSearch: &struct{}{}}},
	}
	if req.SystemInstruction != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemInstruction}}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gemini: encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini: call provider: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("gemini: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini: status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var decoded geminiGenerateResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("gemini: decode response: %w", err)
	}
	if len(decoded.Candidates) == 0 {
		return nil, fmt.Errorf("gemini: response has no candidates")
	}

	candidate := decoded.Candidates[0]
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}

	result := &GenerateResult{Text: text.String()}
	if candidate.GroundingMetadata != nil {
		for _, chunk := range candidate.GroundingMetadata.GroundingChunks {
			if chunk.Web == nil {
				continue
			}
			snippet := chunk.Web.Snippet
			if snippet == "" {
				snippet = chunk.Web.Description
			}
			result.Citations = append(result.Citations, CitationChunk{
				URI:     chunk.Web.URI,
				Title:   chunk.Web.Title,
				Snippet: snippet,
			})
		}
	}
	return result, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
