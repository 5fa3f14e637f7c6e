package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"mindcast/internal/analyze"
	"mindcast/internal/model"
	"mindcast/internal/pipeline"
)

// OpenAI scores feature reports through the chat completions API.
type OpenAI struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewOpenAI(apiKey, modelName string) *OpenAI {
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}
	return &OpenAI{
		apiKey:     apiKey,
		model:      modelName,
		baseURL:    "https://api.openai.com/v1",
		httpClient: &http.Client{Timeout: 25 * time.Second},
	}
}

func (o *OpenAI) Name() model.Source { return model.SourceProviderA }

// Score makes exactly one attempt; any transport or parse problem is
// returned for the pipeline to fall through on.
func (o *OpenAI) Score(ctx context.Context, rep analyze.Report, sample string) (pipeline.ProviderResult, error) {
	var out pipeline.ProviderResult
	if o.apiKey == "" {
		return out, pipeline.ErrUnconfigured
	}
	body, err := json.Marshal(map[string]any{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "user", "content": buildPrompt(rep, sample)},
		},
		"response_format": map[string]string{"type": "json_object"},
	})
	if err != nil {
		return out, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return out, fmt.Errorf("openai status %d", resp.StatusCode)
	}
	var raw struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return out, fmt.Errorf("%w: %v", pipeline.ErrMalformed, err)
	}
	if len(raw.Choices) == 0 {
		return out, fmt.Errorf("%w: no choices", pipeline.ErrMalformed)
	}
	return parseScorePayload(raw.Choices[0].Message.Content)
}
