package trivia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GenerativeClient asks an OpenAI-compatible chat completions endpoint to
// write quiz questions when the primary source runs short. Its free-text
// output is parsed by ParseQuestions.
type GenerativeClient struct {
	httpClient *http.Client
	apiKey     string
	apiURL     string
	model      string
}

func NewGenerativeClient(apiKey, apiURL, model string) *GenerativeClient {
	return &GenerativeClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:     apiKey,
		apiURL:     apiURL,
		model:      model,
	}
}

// IsAvailable reports whether the client is configured with credentials.
func (c *GenerativeClient) IsAvailable() bool {
	return c.apiKey != "" && c.apiURL != ""
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const questionPromptFormat = `Generate %d multiple choice questions for %s in the following format:
Q1. [Question]
A) [Option A]
B) [Option B]
C) [Option C]
D) [Option D]
Answer: [Correct option letter]
Explanation: [Brief explanation of the answer]

Make questions challenging but fair. Focus on fundamental concepts.
Return only the questions in the exact format above, nothing else.`

// Generate returns the model's raw text for count questions on subject.
func (c *GenerativeClient) Generate(ctx context.Context, subject string, count int) (string, error) {
	if !c.IsAvailable() {
		return "", fmt.Errorf("generative question source is not configured")
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: fmt.Sprintf(questionPromptFormat, count, subject)},
		},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generative API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generative API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("parse generative API response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("generative API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from generative API")
	}
	return chatResp.Choices[0].Message.Content, nil
}
