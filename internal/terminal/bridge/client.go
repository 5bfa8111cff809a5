package bridge

import (
	"net/http"
	"time"

	"hedgebot/internal/logger"

	"github.com/sirupsen/logrus"
)

const defaultTickAge = 2 * time.Second

func New(baseURL, apiKey, secret string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log:    log,
		maxAge: defaultTickAge,
	}
}

// WithTicks makes GetTick answer from src while its quote is younger than
// maxAge; older quotes fall back to a REST request.
func (c *Client) WithTicks(src TickSource, maxAge time.Duration) *Client {
	c.ticks = src
	if maxAge > 0 {
		c.maxAge = maxAge
	}
	return c
}

func (c *Client) logEntry() *logrus.Entry {
	return c.log.WithComponent("bridge")
}
