package opentdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"trivia-quiz/internal/domain"
)

// DefaultBaseURL is the public Open Trivia DB endpoint.
const DefaultBaseURL = "https://opentdb.com"

// Response codes of the question endpoint.
const (
	CodeSuccess       = 0
	CodeNoResults     = 1
	CodeInvalidParam  = 2
	CodeTokenNotFound = 3
	CodeTokenEmpty    = 4
	CodeRateLimit     = 5
)

const (
	tokenKey      = "opentdb:token"
	tokenTTL      = 6 * time.Hour
	categoriesKey = "opentdb:categories"
	categoriesTTL = 24 * time.Hour
)

// Cache holds the session token and the category list between calls.
type Cache interface {
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(ctx context.Context) ([]byte, error)) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Cache      Cache
	// UseToken asks the source for a session token so consecutive quizzes do
	// not repeat questions.
	UseToken bool
}

// Client talks to the Open Trivia DB HTTP API. Requests carry no timeout of
// their own; cancel ctx to abandon one.
type Client struct {
	baseURL  string
	http     *http.Client
	cache    Cache
	useToken bool
}

func NewClient(c Config) *Client {
	cl := &Client{
		baseURL:  strings.TrimRight(c.BaseURL, "/"),
		http:     c.HTTPClient,
		cache:    c.Cache,
		useToken: c.UseToken,
	}
	if cl.baseURL == "" {
		cl.baseURL = DefaultBaseURL
	}
	if cl.http == nil {
		cl.http = &http.Client{}
	}
	if cl.cache == nil {
		cl.cache = passthrough{}
	}
	return cl
}

type questionsResponse struct {
	ResponseCode *int            `json:"response_code"`
	Results      json.RawMessage `json:"results"`
}

// FetchQuestions requests a question set. A non-zero response code becomes a
// *domain.SourceError; HTTP and decoding failures become *domain.TransportError.
func (c *Client) FetchQuestions(ctx context.Context, q domain.QuestionQuery) ([]domain.Question, error) {
	token := c.sessionToken(ctx)

	resp, err := c.fetchQuestions(ctx, q, token)
	if err != nil {
		return nil, err
	}

	if token != "" && (code(resp) == CodeTokenNotFound || code(resp) == CodeTokenEmpty) {
		slog.InfoContext(ctx, "opentdb: session token rejected, retrying", "response_code", code(resp))
		token = c.renewToken(ctx, token, code(resp))
		if resp, err = c.fetchQuestions(ctx, q, token); err != nil {
			return nil, err
		}
	}

	if resp.ResponseCode == nil {
		return nil, &domain.SourceError{Code: -1, Reason: "response_code missing"}
	}
	if *resp.ResponseCode != CodeSuccess {
		return nil, &domain.SourceError{Code: *resp.ResponseCode, Reason: describe(*resp.ResponseCode)}
	}
	return decodeResults(resp.Results)
}

func (c *Client) fetchQuestions(ctx context.Context, q domain.QuestionQuery, token string) (questionsResponse, error) {
	params := url.Values{}
	params.Set("amount", strconv.Itoa(q.Amount))
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.Difficulty != "" {
		params.Set("difficulty", q.Difficulty)
	}
	typ := q.Type
	if typ == "" {
		typ = domain.AnswerTypeMultiple
	}
	params.Set("type", typ)
	if token != "" {
		params.Set("token", token)
	}

	var resp questionsResponse
	err := c.getJSON(ctx, "/api.php", params, &resp)
	return resp, err
}

// decodeResults treats anything other than a JSON array as an empty set.
func decodeResults(raw json.RawMessage) ([]domain.Question, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []domain.Question{}, nil
	}
	var questions []domain.Question
	if err := json.Unmarshal(trimmed, &questions); err != nil {
		return nil, &domain.TransportError{Err: fmt.Errorf("decode results: %w", err)}
	}
	return questions, nil
}

type categoriesResponse struct {
	Categories []domain.Category `json:"trivia_categories"`
}

// Categories lists the categories the source offers, cached for a day.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	raw, err := c.cache.GetOrLoad(ctx, categoriesKey, categoriesTTL, func(ctx context.Context) ([]byte, error) {
		var resp categoriesResponse
		if err := c.getJSON(ctx, "/api_category.php", nil, &resp); err != nil {
			return nil, err
		}
		return json.Marshal(resp.Categories)
	})
	if err != nil {
		return nil, err
	}

	var categories []domain.Category
	if err := json.Unmarshal(raw, &categories); err != nil {
		return nil, fmt.Errorf("decode cached categories: %w", err)
	}
	return categories, nil
}

type tokenResponse struct {
	ResponseCode int    `json:"response_code"`
	Token        string `json:"token"`
}

// sessionToken returns the cached token, requesting one when needed. Token
// problems never fail a fetch; the request goes out without a token instead.
func (c *Client) sessionToken(ctx context.Context) string {
	if !c.useToken {
		return ""
	}
	raw, err := c.cache.GetOrLoad(ctx, tokenKey, tokenTTL, c.requestToken)
	if err != nil {
		slog.WarnContext(ctx, "opentdb: session token unavailable", "error", err)
		return ""
	}
	return string(raw)
}

func (c *Client) requestToken(ctx context.Context) ([]byte, error) {
	params := url.Values{}
	params.Set("command", "request")

	var resp tokenResponse
	if err := c.getJSON(ctx, "/api_token.php", params, &resp); err != nil {
		return nil, err
	}
	if resp.ResponseCode != CodeSuccess || resp.Token == "" {
		return nil, &domain.SourceError{Code: resp.ResponseCode, Reason: "token request refused"}
	}
	return []byte(resp.Token), nil
}

// renewToken recovers from a rejected token: an unknown token is replaced, an
// exhausted one is reset on the source.
func (c *Client) renewToken(ctx context.Context, token string, responseCode int) string {
	if responseCode == CodeTokenEmpty {
		params := url.Values{}
		params.Set("command", "reset")
		params.Set("token", token)

		var resp tokenResponse
		if err := c.getJSON(ctx, "/api_token.php", params, &resp); err == nil && resp.ResponseCode == CodeSuccess {
			return token
		}
	}

	if err := c.cache.Delete(ctx, tokenKey); err != nil {
		slog.WarnContext(ctx, "opentdb: drop session token failed", "error", err)
	}
	return c.sessionToken(ctx)
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &domain.TransportError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	slog.DebugContext(ctx, "opentdb: request", "url", u)
	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.TransportError{StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func code(resp questionsResponse) int {
	if resp.ResponseCode == nil {
		return -1
	}
	return *resp.ResponseCode
}

func describe(code int) string {
	switch code {
	case CodeNoResults:
		return "not enough questions for the requested options"
	case CodeInvalidParam:
		return "invalid parameter"
	case CodeTokenNotFound:
		return "session token not found"
	case CodeTokenEmpty:
		return "session token exhausted"
	case CodeRateLimit:
		return "rate limit exceeded"
	default:
		return ""
	}
}

// passthrough is the Cache used when none is configured.
type passthrough struct{}

func (passthrough) GetOrLoad(ctx context.Context, _ string, _ time.Duration, load func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	return load(ctx)
}

func (passthrough) Delete(context.Context, string) error { return nil }
