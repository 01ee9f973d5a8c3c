package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OllamaService implements ComposerService using a local Ollama instance.
type OllamaService struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllamaService creates a new Ollama service
func NewOllamaService(baseURL, model string) *OllamaService {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}
	return &OllamaService{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// GenerateDraft implements ComposerService
func (o *OllamaService) GenerateDraft(ctx context.Context, emailContext, prompt string) (string, error) {
	full := fmt.Sprintf(`You are an AI email assistant embedded in an email client app. Compose an email for the user.

START CONTEXT BLOCK
%s
END OF CONTEXT BLOCK

USER PROMPT:
%s

Directly output the email body. Do not output a subject line or any preamble.`, emailContext, prompt)

	return o.generate(ctx, full, 0.7, 500)
}

// CompleteText implements ComposerService
func (o *OllamaService) CompleteText(ctx context.Context, input, emailContext string) (string, error) {
	full := fmt.Sprintf(`ALWAYS RESPOND IN PLAIN TEXT, no HTML or markdown.
You autocomplete sentences in an email editor.

Email context: %s
Text to complete: %s

Only finish the sentence; your output is concatenated directly to the input.`, emailContext, input)

	return o.generate(ctx, full, 0.3, 60)
}

func (o *OllamaService) generate(ctx context.Context, prompt string, temperature float64, numPredict int) (string, error) {
	url := o.baseURL + "/api/generate"

	payload := map[string]interface{}{
		"model":  o.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": temperature,
			"num_predict": numPredict,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	return result.Response, nil
}
