package trivia

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"studyhub-bot/internal/domain"
)

const defaultBaseURL = "https://opentdb.com"

// OpenTDBClient fetches multiple-choice questions from the Open Trivia DB API.
// Payloads are requested base64-encoded to sidestep the API's HTML escaping.
type OpenTDBClient struct {
	baseURL    string
	httpClient *http.Client
	rnd        *rand.Rand
}

func NewOpenTDBClient(baseURL string) *OpenTDBClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OpenTDBClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type openTDBResponse struct {
	ResponseCode int `json:"response_code"`
	Results      []struct {
		Question         string   `json:"question"`
		CorrectAnswer    string   `json:"correct_answer"`
		IncorrectAnswers []string `json:"incorrect_answers"`
	} `json:"results"`
}

// Fetch returns up to count questions for an Open Trivia DB category id.
// A non-zero API response code yields an empty slice, not an error.
func (c *OpenTDBClient) Fetch(ctx context.Context, categoryID, count int) ([]domain.Question, error) {
	q := url.Values{}
	q.Set("amount", fmt.Sprint(count))
	q.Set("category", fmt.Sprint(categoryID))
	q.Set("type", "multiple")
	q.Set("encode", "base64")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api.php?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open trivia db request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open trivia db returned status %d", resp.StatusCode)
	}

	var body openTDBResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode open trivia db response: %w", err)
	}
	if body.ResponseCode != 0 {
		return nil, nil
	}

	questions := make([]domain.Question, 0, len(body.Results))
	for _, r := range body.Results {
		text, err := decodeB64(r.Question)
		if err != nil {
			continue
		}
		correct, err := decodeB64(r.CorrectAnswer)
		if err != nil || len(r.IncorrectAnswers) != 3 {
			continue
		}
		options := []string{correct}
		ok := true
		for _, enc := range r.IncorrectAnswers {
			opt, err := decodeB64(enc)
			if err != nil {
				ok = false
				break
			}
			options = append(options, opt)
		}
		if !ok {
			continue
		}

		// Shuffle so the correct option does not always land on A.
		c.rnd.Shuffle(len(options), func(i, j int) {
			options[i], options[j] = options[j], options[i]
		})
		answer := ""
		for i, opt := range options {
			if opt == correct {
				answer = domain.OptionLetters[i]
				break
			}
		}
		if answer == "" {
			continue
		}
		questions = append(questions, domain.Question{
			Text:    text,
			Options: options,
			Answer:  answer,
		})
	}
	return questions, nil
}

func decodeB64(s string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
