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

const (
	openAIBaseURL    = "https://api.openai.com/v1"
	openAIChatModel  = "gpt-4-turbo"
	openAIEmbedModel = "text-embedding-ada-002"
)

// OpenAIService implements ComposerService and EmbedderService against the
// OpenAI HTTP API.
type OpenAIService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewOpenAIService(apiKey string) *OpenAIService {
	return &OpenAIService{
		apiKey:     apiKey,
		baseURL:    openAIBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// GenerateDraft implements ComposerService
func (s *OpenAIService) GenerateDraft(ctx context.Context, emailContext, prompt string) (string, error) {
	system := fmt.Sprintf(`You are an AI email assistant embedded in an email client app. Your purpose is to help the user compose emails by providing suggestions and relevant information based on the context of their previous emails.

THE TIME NOW IS %s

START CONTEXT BLOCK
%s
END OF CONTEXT BLOCK

When responding, please keep in mind:
- Be helpful, clever, and articulate.
- Rely on the provided email context to inform your response.
- If the context does not contain enough information to fully address the prompt, politely give a draft response.
- Do not invent or speculate about anything that is not directly supported by the email context.
- Keep your response focused and relevant to the user's prompt.
- Directly output the email, no need to say 'Here is your email' or anything like that.
- No need to output subject`, time.Now().Format("1/2/2006, 3:04:05 PM"), emailContext)

	return s.chat(ctx, system, prompt)
}

// CompleteText implements ComposerService
func (s *OpenAIService) CompleteText(ctx context.Context, input, emailContext string) (string, error) {
	system := fmt.Sprintf(`ALWAYS RESPOND IN PLAIN TEXT, no HTML or no markdown or no Style.
You are a helpful AI embedded in an email client app that is used to autocomplete sentences, similar to the Google Gmail autocomplete feature.
The user is writing a piece of text in a text editor app. Help them complete their sentence according to the email context.

Here is the email context: %s

When responding, please keep in mind:
- Do NOT repeat any words or phrases already written in the text editor. Focus on completing the sentence.
- Keep the tone of the text consistent with the rest of the input.
- Ensure the response is short and sweet, and seamlessly completes the sentence.
- Do not generate an entire paragraph, only finish the sentence as needed.
- Your output is directly concatenated to the input, do not add extra lines or markdown.`, emailContext)

	return s.chat(ctx, system, input)
}

// EmbedText implements EmbedderService
func (s *OpenAIService) EmbedText(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]any{
		"model": openAIEmbedModel,
		"input": strings.ReplaceAll(text, "\n", " "),
	}

	var result struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := s.post(ctx, "/embeddings", payload, &result); err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("openai returned no embedding data")
	}
	return result.Data[0].Embedding, nil
}

func (s *OpenAIService) chat(ctx context.Context, system, user string) (string, error) {
	payload := map[string]any{
		"model": openAIChatModel,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := s.post(ctx, "/chat/completions", payload, &result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}

func (s *OpenAIService) post(ctx context.Context, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+endpoint, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openai API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return json.Unmarshal(respBody, out)
}
