package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gateway(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

// stalledGateway never answers: the handler drains the request and waits
// for the client to give up. Its release runs at cleanup ahead of
// srv.Close, so a handler still waiting cannot block shutdown.
func stalledGateway(t *testing.T) *httptest.Server {
	t.Helper()
	release := make(chan struct{})
	srv := gateway(t, func(_ http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	t.Cleanup(func() { close(release) })
	return srv
}

// rawGateway accepts connections on a bare listener, reads one request
// from each and hands the connection to reply.
func rawGateway(t *testing.T, reply func(net.Conn)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				req, err := http.ReadRequest(bufio.NewReader(conn))
				if err != nil {
					return
				}
				_, _ = io.Copy(io.Discard, req.Body)
				reply(conn)
			}()
		}
	}()
	return "http://" + ln.Addr().String()
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestEssay_Success(t *testing.T) {
	t.Parallel()

	var gotPath, gotUA string
	var gotBody map[string]any
	srv := gateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		respond(http.StatusOK, `{"output":{"content":"Rivers carve the land.","type":"ai"},"metadata":{"run_id":"r1","feedback_tokens":[]}}`)(w, r)
	})

	res := New(srv.URL).Essay(context.Background(), "rivers")

	assert.Equal(t, Result{Text: "Rivers carve the land."}, res)
	assert.Equal(t, "/essay/invoke", gotPath)
	assert.True(t, strings.HasPrefix(gotUA, "inkwell-ui/"), "user agent %q", gotUA)
	assert.Equal(t, map[string]any{"input": map[string]any{"topic": "rivers"}}, gotBody)
}

func TestPoem_Success(t *testing.T) {
	t.Parallel()

	var gotPath string
	srv := gateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		respond(http.StatusOK, `{"output":"Leaves dance in the breeze.","metadata":{}}`)(w, r)
	})

	base := srv.URL + "/"
	res := New(base).Poem(context.Background(), "nature")

	assert.Equal(t, Result{Text: "Leaves dance in the breeze."}, res)
	assert.Equal(t, "/poem/invoke", gotPath)
}

func TestGenerate_OutputShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		route Route
		body  string
		want  Result
	}{
		{name: "essay without output", route: RouteEssay, body: `{}`, want: Result{Text: "No content returned"}},
		{name: "essay without content", route: RouteEssay, body: `{"output":{"type":"ai"}}`, want: Result{Text: "No content returned"}},
		{name: "poem without output", route: RoutePoem, body: `{"metadata":{}}`, want: Result{Text: "No output returned"}},
		{name: "poem with object output", route: RoutePoem, body: `{"output":{"text":"hi"}}`, want: Result{Text: `{"text":"hi"}`}},
		{name: "essay with string output", route: RouteEssay, body: `{"output":"plain"}`, want: Result{Text: "Unexpected Error: output is string, not an object", Failed: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := gateway(t, respond(http.StatusOK, tt.body))
			assert.Equal(t, tt.want, New(srv.URL).Generate(context.Background(), tt.route, "x"))
		})
	}
}

func TestGenerate_HTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   string
	}{
		{status: http.StatusInternalServerError, want: "HTTP Error: 500 - Internal Server Error"},
		{status: http.StatusUnprocessableEntity, want: "HTTP Error: 422 - Unprocessable Entity"},
		{status: http.StatusNotFound, want: "HTTP Error: 404 - Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			srv := gateway(t, respond(tt.status, `{"detail":"Internal server error"}`))
			res := New(srv.URL).Essay(context.Background(), "x")
			assert.Equal(t, Result{Text: tt.want, Failed: true}, res)
		})
	}
}

func TestGenerate_InvalidJSON(t *testing.T) {
	t.Parallel()

	srv := gateway(t, respond(http.StatusOK, `<html>not json</html>`))
	res := New(srv.URL).Poem(context.Background(), "x")

	assert.Equal(t, Result{Text: "Error: Invalid JSON response from server.", Failed: true}, res)
}

func TestGenerate_Timeout(t *testing.T) {
	t.Parallel()

	srv := stalledGateway(t)

	res := New(srv.URL, WithTimeout(50*time.Millisecond)).Essay(context.Background(), "slow")

	assert.Equal(t, Result{Text: "Error: Request timed out. Please try again.", Failed: true}, res)
}

func TestGenerate_ContextDeadlineIsTimeout(t *testing.T) {
	t.Parallel()

	srv := stalledGateway(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res := New(srv.URL).Poem(ctx, "slow")
	assert.Equal(t, MsgTimeout, res.Text)
	assert.True(t, res.Failed)
}

func TestGenerate_ServerUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := New(url).Essay(context.Background(), "x")

	assert.Equal(t, Result{Text: "Error: Unable to connect to the server. Ensure FastAPI is running.", Failed: true}, res)
}

func TestGenerate_DroppedConnectionIsUnreachable(t *testing.T) {
	t.Parallel()

	url := rawGateway(t, func(net.Conn) {})

	res := New(url).Essay(context.Background(), "x")

	assert.Equal(t, Result{Text: "Error: Unable to connect to the server. Ensure FastAPI is running.", Failed: true}, res)
}

func TestGenerate_HTTPErrorUsesServerReason(t *testing.T) {
	t.Parallel()

	url := rawGateway(t, func(conn net.Conn) {
		_, _ = io.WriteString(conn, "HTTP/1.1 599 Network Connect Timeout\r\nContent-Length: 0\r\nConnection: close\r\n\r\n")
	})

	res := New(url).Poem(context.Background(), "x")

	assert.Equal(t, Result{Text: "HTTP Error: 599 - Network Connect Timeout", Failed: true}, res)
}

func TestGenerate_NonObjectBodyIsUnexpected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		body string
		want string
	}{
		{body: `[1]`, want: "Unexpected Error: response body is an array, not an object"},
		{body: `"x"`, want: "Unexpected Error: response body is a string, not an object"},
		{body: `null`, want: "Unexpected Error: response body is null, not an object"},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			t.Parallel()
			srv := gateway(t, respond(http.StatusOK, tt.body))
			for _, route := range []Route{RouteEssay, RoutePoem} {
				assert.Equal(t, Result{Text: tt.want, Failed: true}, New(srv.URL).Generate(context.Background(), route, "x"))
			}
		})
	}
}

func TestDescribe_ConnectionErrors(t *testing.T) {
	t.Parallel()

	for _, err := range []error{io.EOF, io.ErrUnexpectedEOF, syscall.ECONNRESET, syscall.ECONNREFUSED} {
		wrapped := fmt.Errorf("Post \"http://localhost:8000/essay/invoke\": %w", err)
		assert.Equal(t, MsgUnreachable, describe(wrapped), "%v", err)
	}
	assert.Equal(t, "Unexpected Error: boom", describe(errors.New("boom")))
}

func TestGenerate_UnknownRoute(t *testing.T) {
	t.Parallel()

	res := New("").Generate(context.Background(), Route("haiku"), "x")
	assert.True(t, res.Failed)
	assert.Equal(t, `Unexpected Error: unknown route "haiku"`, res.Text)
}

func TestGenerate_BadBaseURLIsUnexpected(t *testing.T) {
	t.Parallel()

	res := New("http://[::1").Essay(context.Background(), "x")
	require.True(t, res.Failed)
	assert.True(t, strings.HasPrefix(res.Text, "Unexpected Error: "), res.Text)
}

func TestFailureMessages_AllContainErrorMarker(t *testing.T) {
	t.Parallel()

	for _, msg := range []string{MsgTimeout, MsgUnreachable, MsgInvalidJSON, (&StatusError{Code: 503}).Error(), "Unexpected Error: x"} {
		assert.Contains(t, msg, "Error:")
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	c := New("")
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)

	hc := &http.Client{Timeout: time.Second}
	assert.Same(t, hc, New("", WithHTTPClient(hc)).httpClient)
}
