package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pinscout-backend/internal/models"
)

const scorePrompt = `Analyze this image and determine how well it matches the visual prompt: %q

Consider visual style, subject matter, color scheme and mood, overall
relevance, and image quality. Be strict: only high scores for images
specific to the prompt, not loosely related ones.

Respond with JSON only:
{"match_score": 0.85, "explanation": "why the image does or does not match"}

match_score is a number from 0.0 to 1.0 where 1.0 is a perfect match.`

// ScorerClient rates pins with a multimodal model behind an
// OpenAI-compatible chat-completions endpoint.
type ScorerClient struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ Scorer = (*ScorerClient)(nil)

func NewScorerClient(endpoint, model, apiKey string) *ScorerClient {
	return &ScorerClient{
		endpoint: endpoint,
		model:    model,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type scoreResult struct {
	MatchScore  *float64 `json:"match_score"`
	Explanation string   `json:"explanation"`
}

func (c *ScorerClient) Score(ctx context.Context, pin models.Pin, text string) (float64, string, error) {
	if pin.SourceURL == "" {
		return 0, "", collaboratorErr("scorer", fmt.Errorf("pin %s has no source url", pin.ID))
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: fmt.Sprintf(scorePrompt, text)},
				{Type: "image_url", ImageURL: &imageURL{URL: pin.SourceURL}},
			},
		}},
		"max_tokens":  500,
		"temperature": 0.1,
	})
	if err != nil {
		return 0, "", collaboratorErr("scorer", fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, "", collaboratorErr("scorer", fmt.Errorf("new request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", collaboratorErr("scorer", fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, "", collaboratorErr("scorer", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return 0, "", collaboratorErr("scorer", fmt.Errorf("decode response: %w", err))
	}
	if len(chat.Choices) == 0 {
		return 0, "", collaboratorErr("scorer", fmt.Errorf("response contained no choices"))
	}

	score, explanation, err := parseScoreContent(chat.Choices[0].Message.Content)
	if err != nil {
		return 0, "", collaboratorErr("scorer", err)
	}
	return score, explanation, nil
}

// parseScoreContent extracts the JSON verdict from the model output,
// tolerating prose around the JSON object.
func parseScoreContent(content string) (float64, string, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return 0, "", fmt.Errorf("no JSON object in model output: %q", truncate(content, 200))
	}

	var result scoreResult
	if err := json.Unmarshal([]byte(content[start:end+1]), &result); err != nil {
		return 0, "", fmt.Errorf("parse model output: %w", err)
	}
	if result.MatchScore == nil {
		return 0, "", fmt.Errorf("model output missing match_score: %q", truncate(content, 200))
	}

	explanation := result.Explanation
	if explanation == "" {
		explanation = "no explanation provided"
	}
	return *result.MatchScore, explanation, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
