// Package opentdb talks to the Open Trivia Database HTTP API.
package opentdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"trivia-quiz/internal/domain"
)

const (
	DefaultBaseURL = "https://opentdb.com"
	DefaultTimeout = 10 * time.Second

	// questionType is fixed: the quiz only supports four-option questions.
	questionType = "multiple"
)

// Response codes documented by the API.
const (
	codeSuccess       = 0
	codeNoResults     = 1
	codeInvalidParam  = 2
	codeTokenNotFound = 3
	codeTokenEmpty    = 4
	codeRateLimit     = 5
)

var ErrRateLimited = errors.New("opentdb: rate limited")

// Client fetches questions and categories. It implements app.TriviaSource and
// the category loaders of the memory and redis packages.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type questionsResponse struct {
	ResponseCode int                  `json:"response_code"`
	Results      []domain.RawQuestion `json:"results"`
}

type categoriesResponse struct {
	TriviaCategories []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"trivia_categories"`
}

// FetchQuestions requests req.Amount multiple choice questions. A "no results"
// answer from the API is returned as an empty slice, not an error.
func (c *Client) FetchQuestions(ctx context.Context, req domain.QuestionRequest) ([]domain.RawQuestion, error) {
	q := url.Values{}
	q.Set("amount", strconv.Itoa(req.Amount))
	q.Set("category", req.Category)
	q.Set("difficulty", string(req.Difficulty))
	q.Set("type", questionType)

	var resp questionsResponse
	if err := c.getJSON(ctx, "/api.php?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	switch resp.ResponseCode {
	case codeSuccess:
		return resp.Results, nil
	case codeNoResults:
		return []domain.RawQuestion{}, nil
	case codeRateLimit:
		return nil, ErrRateLimited
	case codeInvalidParam, codeTokenNotFound, codeTokenEmpty:
		return nil, fmt.Errorf("opentdb: request rejected with response code %d", resp.ResponseCode)
	}
	return nil, fmt.Errorf("opentdb: unknown response code %d", resp.ResponseCode)
}

// LoadCategories lists the categories offered by the API.
func (c *Client) LoadCategories(ctx context.Context) ([]domain.Category, error) {
	var resp categoriesResponse
	if err := c.getJSON(ctx, "/api_category.php", &resp); err != nil {
		return nil, err
	}

	categories := make([]domain.Category, 0, len(resp.TriviaCategories))
	for _, tc := range resp.TriviaCategories {
		categories = append(categories, domain.Category{
			ID:   strconv.Itoa(tc.ID),
			Name: tc.Name,
		})
	}
	return categories, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("opentdb: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("opentdb: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("opentdb: unexpected status %s", res.Status)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("opentdb: decode response: %w", err)
	}
	return nil
}
