package telegram

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

var refused = &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

func okResponse() *http.Response {
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("{}"))}
}

func TestRetryTransportReplaysBody(t *testing.T) {
	var bodies []string
	rt := &retryTransport{
		attempts: 3,
		backoff:  time.Millisecond,
		maxWait:  time.Millisecond,
		base: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			b, _ := io.ReadAll(r.Body)
			bodies = append(bodies, string(b))
			if len(bodies) < 3 {
				return nil, refused
			}
			return okResponse(), nil
		}),
	}

	req, err := http.NewRequest(http.MethodPost, "https://api.telegram.org/bot1:x/sendMessage", strings.NewReader("chat_id=1"))
	require.NoError(t, err)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, []string{"chat_id=1", "chat_id=1", "chat_id=1"}, bodies)
}

func TestRetryTransportStopsOnPermanentError(t *testing.T) {
	calls := 0
	boom := errors.New("tls: bad certificate")
	rt := &retryTransport{
		attempts: 3,
		backoff:  time.Millisecond,
		maxWait:  time.Millisecond,
		base: roundTripFunc(func(*http.Request) (*http.Response, error) {
			calls++
			return nil, boom
		}),
	}

	req, err := http.NewRequest(http.MethodGet, "https://api.telegram.org/bot1:x/getMe", nil)
	require.NoError(t, err)
	_, err = rt.RoundTrip(req)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRetryTransportGivesUp(t *testing.T) {
	calls := 0
	rt := &retryTransport{
		attempts: 2,
		backoff:  time.Millisecond,
		maxWait:  time.Millisecond,
		base: roundTripFunc(func(*http.Request) (*http.Response, error) {
			calls++
			return nil, refused
		}),
	}

	req, err := http.NewRequest(http.MethodGet, "https://api.telegram.org/bot1:x/getMe", nil)
	require.NoError(t, err)
	_, err = rt.RoundTrip(req)
	assert.ErrorIs(t, err, refused)
	assert.Equal(t, 2, calls)
}

func TestBuildHTTPClientTimeoutCoversLongPoll(t *testing.T) {
	assert.Equal(t, clientTimeout, BuildHTTPClient(0).Timeout)
	assert.Equal(t, 60*time.Second+longPollHeadroom, BuildHTTPClient(60*time.Second).Timeout)
}
