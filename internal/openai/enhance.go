package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrQuotaExceeded is returned when the API key has no remaining credits.
// Callers must not fall back to the original prompt in this case.
var ErrQuotaExceeded = errors.New("openai api key has no available credits")

const enhanceModel = "gpt-4o-mini"

const enhanceSystemPrompt = `You are a Hollywood director of photography and an expert in videography for advanced generation models such as Sora. Transform simple video prompts into rich, varied, professional cinematographic descriptions while always preserving the user's core concept.

Rules:
1. Fidelity: never alter the main subject, setting, or action. Only enrich the description with technical and aesthetic detail.
2. Variation: avoid repeating the same structure or language across responses. Vary lenses, angles, movements, and lighting.
3. Integration: use the given category and visual style as mandatory aesthetic filters.

Enrich with: composition and lens choice (focal length, framing, depth of field), lighting and color (source, quality, palette, atmosphere), a subtle fluid camera movement, and a final render style.

Return ONLY the enhanced prompt, no headings or explanations, at most 300 words.`

type EnhanceContext struct {
	Prompt     string
	Duration   int
	Resolution string
	Category   string
	Style      string
	Model      string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// EnhancePrompt rewrites a prompt with cinematographic detail via the chat
// completions API.
func (c *Client) EnhancePrompt(ec EnhanceContext) (string, error) {
	userPrompt := fmt.Sprintf(`Video context for the prompt:
- Desired duration: %d seconds
- Resolution/aspect: %s
- Project category: %s
- Visual style: %s
- Target generation model: %s

Original prompt to enrich: %s

Enhance this prompt with professional cinematographic and aesthetic detail, matching the required style and category, without changing the core concept.`,
		ec.Duration, ec.Resolution, ec.Category, ec.Style, ec.Model, ec.Prompt)

	jsonData, err := json.Marshal(chatCompletionRequest{
		Model: enhanceModel,
		Messages: []chatMessage{
			{Role: "system", Content: enhanceSystemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.8,
		MaxTokens:   1000,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.do("POST", "/chat/completions", jsonData)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return "", ErrQuotaExceeded
		case resp.StatusCode == http.StatusUnauthorized:
			return "", fmt.Errorf("openai api key is invalid")
		case resp.StatusCode >= 500:
			return "", fmt.Errorf("openai is experiencing internal problems: status %d", resp.StatusCode)
		default:
			return "", &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		}
	}

	var result chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}

	enhanced := strings.TrimSpace(result.Choices[0].Message.Content)
	if enhanced == "" {
		return "", fmt.Errorf("empty enhanced prompt in response")
	}

	return enhanced, nil
}
