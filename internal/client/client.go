// Package client calls the gateway's essay and poem pipelines and turns every
// outcome, success or failure, into display text.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/matiasleandrokruk/inkwell/internal/version"
)

const (
	// DefaultBaseURL is where the gateway listens by default.
	DefaultBaseURL = "http://localhost:8000"
	// DefaultTimeout bounds one generate call end to end.
	DefaultTimeout = 30 * time.Second
)

// Failure texts shown to the user. Every one contains "Error:".
const (
	MsgTimeout     = "Error: Request timed out. Please try again."
	MsgUnreachable = "Error: Unable to connect to the server. Ensure FastAPI is running."
	MsgInvalidJSON = "Error: Invalid JSON response from server."

	noContent = "No content returned"
	noOutput  = "No output returned"
)

// Route names a generator action.
type Route string

const (
	RouteEssay Route = "essay"
	RoutePoem  Route = "poem"
)

// Result is what a generate call produced. Failed selects error styling;
// Text is always ready to display.
type Result struct {
	Text   string
	Failed bool
}

// extractor pulls the display text out of a decoded invoke response.
type extractor func(body map[string]any) (string, error)

var routes = map[Route]struct {
	path    string
	extract extractor
}{
	RouteEssay: {path: "/essay/invoke", extract: contentOfOutput},
	RoutePoem:  {path: "/poem/invoke", extract: stringOutput},
}

// Client talks to one gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout replaces DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client for baseURL; an empty baseURL means DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Essay asks the essay pipeline to write about topic.
func (c *Client) Essay(ctx context.Context, topic string) Result {
	return c.Generate(ctx, RouteEssay, topic)
}

// Poem asks the poem pipeline to write about topic.
func (c *Client) Poem(ctx context.Context, topic string) Result {
	return c.Generate(ctx, RoutePoem, topic)
}

// Generate posts {"input": {"topic": topic}} to the route's invoke endpoint.
// It never returns an error: failures come back as Result.Failed with the
// matching message.
func (c *Client) Generate(ctx context.Context, route Route, topic string) Result {
	r, ok := routes[route]
	if !ok {
		return failed(fmt.Sprintf("Unexpected Error: unknown route %q", route))
	}

	text, err := c.invoke(ctx, r.path, r.extract, topic)
	if err != nil {
		return failed(describe(err))
	}
	return Result{Text: text}
}

func (c *Client) invoke(ctx context.Context, path string, extract extractor, topic string) (string, error) {
	payload, err := json.Marshal(map[string]any{"input": map[string]string{"topic": topic}})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &StatusError{Code: resp.StatusCode, Reason: reasonPhrase(resp)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", errInvalidJSON
	}
	body, ok := decoded.(map[string]any)
	if !ok {
		return "", fmt.Errorf("response body is %s, not an object", jsonKind(decoded))
	}
	return extract(body)
}

// StatusError is a 4xx or 5xx answer from the gateway. Reason is the
// status line's reason phrase as sent by the server.
type StatusError struct {
	Code   int
	Reason string
}

func (e *StatusError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = http.StatusText(e.Code)
	}
	return fmt.Sprintf("HTTP Error: %d - %s", e.Code, reason)
}

// reasonPhrase strips the code from resp.Status ("599 Custom" -> "Custom").
func reasonPhrase(resp *http.Response) string {
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

var errInvalidJSON = errors.New("invalid json")

// describe maps a failed call onto one of the five user-facing categories.
func describe(err error) string {
	var statusErr *StatusError
	switch {
	case isTimeout(err):
		return MsgTimeout
	case isUnreachable(err):
		return MsgUnreachable
	case errors.As(err, &statusErr):
		return statusErr.Error()
	case errors.Is(err, errInvalidJSON):
		return MsgInvalidJSON
	default:
		return "Unexpected Error: " + err.Error()
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isUnreachable covers refused dials, failed lookups and connections the
// server dropped before answering.
func isUnreachable(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	for _, target := range []error{io.EOF, io.ErrUnexpectedEOF, syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.EPIPE} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func failed(text string) Result {
	return Result{Text: text, Failed: true}
}

// contentOfOutput reads output.content, the shape of chat model answers.
func contentOfOutput(body map[string]any) (string, error) {
	raw, ok := body["output"]
	if !ok || raw == nil {
		return noContent, nil
	}
	output, ok := raw.(map[string]any)
	if !ok {
		return "", fmt.Errorf("output is %T, not an object", raw)
	}
	content, ok := output["content"]
	if !ok || content == nil {
		return noContent, nil
	}
	return fmt.Sprint(content), nil
}

// stringOutput reads output as text, the shape of completion model answers.
func stringOutput(body map[string]any) (string, error) {
	raw, ok := body["output"]
	if !ok || raw == nil {
		return noOutput, nil
	}
	if s, ok := raw.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
