package raapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mcoot/rasync/internal/model"
)

// Client is the network boundary to the achievements service
type Client interface {
	Login(ctx context.Context, username, password string) (model.UserAuth, error)
	FetchHashLibrary(ctx context.Context) (map[string]model.GameID, error)
	FetchAchievementSets(ctx context.Context, gameID model.GameID, auth model.UserAuth) (*model.Game, error)
	FetchUserUnlocks(ctx context.Context, gameID model.GameID, auth model.UserAuth, hardcoreMode bool) ([]model.AchievementID, error)
	SubmitUnlock(ctx context.Context, auth model.UserAuth, id model.AchievementID, hardcoreMode bool, signature string) (model.UnlockResponse, error)
	SubmitLeaderboardEntry(ctx context.Context, auth model.UserAuth, id model.LeaderboardID, score int, signature string) (model.LeaderboardEntryResponse, error)
	StartSession(ctx context.Context, auth model.UserAuth, gameID model.GameID) error
	Ping(ctx context.Context, auth model.UserAuth, gameID model.GameID, richPresence string) error
}

// Config holds configuration for the HTTP client
type Config struct {
	BaseURL    string
	AppName    string
	AppVersion string
	Timeout    time.Duration
}

// DefaultConfig returns default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:    "https://retroachievements.org/dorequest.php",
		AppName:    "rasync",
		AppVersion: "dev",
		Timeout:    10 * time.Second,
	}
}

// HTTPClient talks to dorequest.php over HTTP
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *slog.Logger
}

// Ensure HTTPClient implements the interface
var _ Client = (*HTTPClient)(nil)

// New creates a new HTTPClient
func New(cfg Config, logger *slog.Logger) *HTTPClient {
	defaults := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.AppName == "" {
		cfg.AppName = defaults.AppName
	}
	if cfg.AppVersion == "" {
		cfg.AppVersion = defaults.AppVersion
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:   cfg.BaseURL,
		userAgent: fmt.Sprintf("%s/%s", cfg.AppName, cfg.AppVersion),
		logger:    logger.With(slog.String("component", "raapi")),
	}
}

// RequestError is a request the server answered with Success=false
type RequestError struct {
	Request string
	Status  int
	Code    string
	Message string
}

func (e *RequestError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s request failed: %s (%s)", e.Request, e.Message, e.Code)
	}
	return fmt.Sprintf("%s request failed: %s", e.Request, e.Message)
}

// Unwrap classifies the failure as a credential problem or a bad response
func (e *RequestError) Unwrap() error {
	if e.IsAuthFailure() {
		return model.ErrAuthRejected
	}
	return model.ErrInvalidResponse
}

// IsAuthFailure reports whether the server refused the credentials
func (e *RequestError) IsAuthFailure() bool {
	switch e.Code {
	case "invalid_credentials", "expired_token", "access_denied":
		return true
	}
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// envelope is the status part every dorequest.php response carries
type envelope struct {
	Success bool   `json:"Success"`
	Error   string `json:"Error"`
	Code    string `json:"Code"`
}

// do posts a form request and decodes a successful response into out.
// A server-side failure is returned as *RequestError with the raw body
// so callers can accept specific failures.
func (c *HTTPClient) do(ctx context.Context, request string, params url.Values, out any) error {
	params.Set("r", request)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s: %v", model.ErrNetwork, request, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrNetwork, request, err)
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s: status %d", model.ErrNetwork, request, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.logger.Warn("malformed response",
			slog.String("request", request),
			slog.Int("status", resp.StatusCode),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %s: %v", model.ErrInvalidResponse, request, err)
	}

	if !env.Success || resp.StatusCode >= 400 {
		message := env.Error
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return &RequestError{
			Request: request,
			Status:  resp.StatusCode,
			Code:    env.Code,
			Message: message,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Warn("malformed response payload",
			slog.String("request", request),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %s: %v", model.ErrInvalidResponse, request, err)
	}
	return nil
}

// asRequestError unwraps a *RequestError if err is one
func asRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr, true
	}
	return nil, false
}
