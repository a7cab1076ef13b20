package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/dietbot/core/telegram/netutil"
)

const (
	dialTimeout      = 5 * time.Second
	keepAlive        = 30 * time.Second
	tlsTimeout       = 5 * time.Second
	idleTimeout      = 30 * time.Second
	clientTimeout    = 30 * time.Second
	retryAttempts    = 3
	retryBackoff     = 500 * time.Millisecond
	retryBackoffMax  = 4 * time.Second
	longPollHeadroom = 15 * time.Second
)

// BuildHTTPClient returns the client used for Bot API calls. Transport
// errors are retried with exponential backoff; HTTP responses are not.
// The client timeout leaves room for a long poll of pollTimeout.
func BuildHTTPClient(pollTimeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: keepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       idleTimeout,
		TLSHandshakeTimeout:   tlsTimeout,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout: max(clientTimeout, pollTimeout+longPollHeadroom),
		Transport: &retryTransport{
			base:     transport,
			attempts: retryAttempts,
			backoff:  retryBackoff,
			maxWait:  retryBackoffMax,
		},
	}
}

type retryTransport struct {
	base     http.RoundTripper
	attempts int
	backoff  time.Duration
	maxWait  time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	attempts := max(t.attempts, 1)

	var err error
	for attempt := 1; ; attempt++ {
		cur := req
		if attempt > 1 {
			cur = req.Clone(req.Context())
			if req.Body != nil {
				// A body that cannot be replayed gets one attempt only.
				if req.GetBody == nil {
					return nil, err
				}
				body, bodyErr := req.GetBody()
				if bodyErr != nil {
					return nil, bodyErr
				}
				cur.Body = body
			}
		}

		var resp *http.Response
		resp, err = base.RoundTrip(cur)
		if err == nil {
			return resp, nil
		}
		if attempt >= attempts || !netutil.ShouldRetry(err) {
			return nil, err
		}
		if sleepErr := netutil.Sleep(req.Context(), netutil.Backoff(attempt, t.backoff, t.maxWait)); sleepErr != nil {
			return nil, sleepErr
		}
	}
}
