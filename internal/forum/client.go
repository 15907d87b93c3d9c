// Package forum talks to the forum HTTP API: bumping threads and reading their titles.
package forum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"bumpbot/internal/models"
)

// DefaultTimeout bounds a single forum request
const DefaultTimeout = 30 * time.Second

// ErrTitleMissing is returned when the thread payload has no title
var ErrTitleMissing = errors.New("thread title missing from response")

// StatusError is returned for a non-200 forum response
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected forum status %d", e.Code)
}

// cooldownPattern matches "3 часов 15 минут 2 секунд" in the forum error text
var cooldownPattern = regexp.MustCompile(`(\d+)\s+часов\s+(\d+)\s+минут\s+(\d+)\s+секунд`)

// Client is a forum API client. It is safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a forum client. A non-positive timeout selects DefaultTimeout.
func New(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.Named("forum"),
	}
}

type bumpResponse struct {
	Errors []string `json:"errors"`
}

type threadResponse struct {
	Thread *struct {
		Title *string `json:"thread_title"`
	} `json:"thread"`
}

// Bump asks the forum to raise the thread. Every outcome is reported in the result.
func (c *Client) Bump(ctx context.Context, threadID string) models.BumpResult {
	result := models.BumpResult{ThreadID: threadID}

	req, err := c.newRequest(ctx, http.MethodPost, "/threads/"+threadID+"/bump")
	if err != nil {
		result.Status = models.BumpStatusRemoteError
		result.Err = err
		return result
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportFailure(result, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportFailure(result, err)
	}

	c.logger.Debug("Forum bump response",
		zap.String("thread_id", threadID),
		zap.Int("status", resp.StatusCode),
		zap.ByteString("body", body),
	)

	if resp.StatusCode != http.StatusOK {
		result.Status = models.BumpStatusRemoteError
		result.HTTPStatus = resp.StatusCode
		return result
	}

	return interpretBumpBody(result, body)
}

// interpretBumpBody classifies a 200 response body
func interpretBumpBody(result models.BumpResult, body []byte) models.BumpResult {
	var parsed bumpResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		result.Status = models.BumpStatusUnparseable
		result.Raw = strings.TrimSpace(string(body))
		return result
	}

	if len(parsed.Errors) == 0 {
		result.Status = models.BumpStatusBumped
		return result
	}

	message := parsed.Errors[0]
	if remaining, ok := ParseCooldown(message); ok {
		result.Status = models.BumpStatusRateLimited
		result.Remaining = remaining
		return result
	}

	result.Status = models.BumpStatusUnparseable
	result.Raw = message
	return result
}

// ParseCooldown extracts the remaining wait from a forum rate-limit message
func ParseCooldown(message string) (time.Duration, bool) {
	m := cooldownPattern.FindStringSubmatch(message)
	if m == nil {
		return 0, false
	}
	var parts [3]int
	for i := range parts {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, false
		}
		parts[i] = n
	}
	return time.Duration(parts[0])*time.Hour +
		time.Duration(parts[1])*time.Minute +
		time.Duration(parts[2])*time.Second, true
}

// Title fetches the thread title. Callers decide what to show on error.
func (c *Client) Title(ctx context.Context, threadID string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/threads/"+threadID)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch thread %s: %w", threadID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused
		io.Copy(io.Discard, resp.Body)
		return "", &StatusError{Code: resp.StatusCode}
	}

	var parsed threadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode thread %s: %w", threadID, err)
	}
	if parsed.Thread == nil || parsed.Thread.Title == nil {
		return "", ErrTitleMissing
	}
	return *parsed.Thread.Title, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build forum request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func transportFailure(result models.BumpResult, err error) models.BumpResult {
	result.Err = err
	if IsTimeout(err) {
		result.Status = models.BumpStatusTimeout
	} else {
		result.Status = models.BumpStatusRemoteError
	}
	return result
}

// IsTimeout reports whether err is a client or context deadline
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
