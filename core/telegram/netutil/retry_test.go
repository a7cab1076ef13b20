package netutil

import (
	"context"
	"errors"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	dial := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	assert.False(t, ShouldRetry(nil))
	assert.False(t, ShouldRetry(errors.New("bad request")))
	assert.False(t, ShouldRetry(context.Canceled))
	assert.True(t, ShouldRetry(context.DeadlineExceeded))
	assert.True(t, ShouldRetry(dial))
	assert.True(t, ShouldRetry(timeoutErr{}))
	assert.True(t, ShouldRetry(&url.Error{Op: "Post", URL: "https://api", Err: dial}))
	assert.False(t, ShouldRetry(&url.Error{Op: "Post", URL: "https://api", Err: errors.New("tls: bad certificate")}))
}

func TestRetryableStatus(t *testing.T) {
	for _, code := range []int{408, 409, 429, 500, 502, 503, 599} {
		assert.True(t, RetryableStatus(code), code)
	}
	for _, code := range []int{200, 400, 401, 403, 404, 422, 600} {
		assert.False(t, RetryableStatus(code), code)
	}
}

func TestBackoff(t *testing.T) {
	base, max := 2*time.Second, 10*time.Second

	assert.Equal(t, 2*time.Second, Backoff(1, base, max))
	assert.Equal(t, 4*time.Second, Backoff(2, base, max))
	assert.Equal(t, 8*time.Second, Backoff(3, base, max))
	assert.Equal(t, 10*time.Second, Backoff(4, base, max))
	assert.Equal(t, 10*time.Second, Backoff(30, base, max))
	assert.Equal(t, 2*time.Second, Backoff(0, base, max))
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
}
