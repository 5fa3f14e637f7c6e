package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"mindcast/internal/analyze"
	"mindcast/internal/model"
	"mindcast/internal/pipeline"
)

// Gemini scores feature reports through the generateContent API. Same
// contract as OpenAI, independent failure handling.
type Gemini struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewGemini(apiKey, modelName string) *Gemini {
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &Gemini{
		apiKey:     apiKey,
		model:      modelName,
		baseURL:    "https://generativelanguage.googleapis.com/v1beta",
		httpClient: &http.Client{Timeout: 25 * time.Second},
	}
}

func (g *Gemini) Name() model.Source { return model.SourceProviderB }

func (g *Gemini) Score(ctx context.Context, rep analyze.Report, sample string) (pipeline.ProviderResult, error) {
	var out pipeline.ProviderResult
	if g.apiKey == "" {
		return out, pipeline.ErrUnconfigured
	}
	body, err := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": buildPrompt(rep, sample)}}},
		},
	})
	if err != nil {
		return out, err
	}
	u := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return out, fmt.Errorf("gemini status %d", resp.StatusCode)
	}
	var raw struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return out, fmt.Errorf("%w: %v", pipeline.ErrMalformed, err)
	}
	if len(raw.Candidates) == 0 || len(raw.Candidates[0].Content.Parts) == 0 {
		return out, fmt.Errorf("%w: no candidates", pipeline.ErrMalformed)
	}
	return parseScorePayload(raw.Candidates[0].Content.Parts[0].Text)
}
