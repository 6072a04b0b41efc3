// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/marioparaschiv/social-dashboard/internal/logging"
	"github.com/marioparaschiv/social-dashboard/internal/metrics"
)

const (
	restAttempts     = 3
	maxRetryAfter    = time.Minute
	maxResponseBytes = 8 << 20
)

// ErrRequestFailed is returned when a REST call does not succeed within its retries.
var ErrRequestFailed = errors.New("gateway: request failed")

// RESTClient calls the platform HTTP API for one account. Calls are rate limited
// and pass through a circuit breaker shared by the account.
type RESTClient struct {
	base       string
	token      string
	superProps string
	http       *http.Client
	limiter    *rate.Limiter
	cb         *gobreaker.CircuitBreaker[*restResponse]
	name       string
	sleep      func(ctx context.Context, d time.Duration) error
}

type restResponse struct {
	status     int
	body       []byte
	retryAfter time.Duration
}

// NewRESTClient builds a client for token. A nil httpClient uses one with cfg.RequestTimeout.
func NewRESTClient(cfg Config, token string, account int, httpClient *http.Client) *RESTClient {
	cfg = cfg.withDefaults()
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	name := "discord-rest-" + strconv.Itoa(account)
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[*restResponse](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	burst := int(cfg.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}

	return &RESTClient{
		base:       cfg.APIBase,
		token:      token,
		superProps: encodeSuperProperties(cfg.SuperProperties),
		http:       httpClient,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		cb:         cb,
		name:       name,
		sleep:      sleepContext,
	}
}

func encodeSuperProperties(props map[string]interface{}) string {
	if len(props) == 0 {
		return ""
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetMessage fetches one message by id. It returns nil without error when the
// API answers with something other than a message list.
func (c *RESTClient) GetMessage(ctx context.Context, channelID, messageID string) (*Message, error) {
	path := fmt.Sprintf("/channels/%s/messages?around=%s&limit=1", url.PathEscape(channelID), url.QueryEscape(messageID))

	resp, err := c.withRetries(ctx, "get_message", http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var messages []Message
	if err := json.Unmarshal(resp.body, &messages); err != nil || len(messages) == 0 {
		return nil, nil
	}
	return &messages[0], nil
}

type sendMessageBody struct {
	Content          string            `json:"content"`
	MessageReference *MessageReference `json:"message_reference,omitempty"`
}

// SendMessage posts content to channelID, replying to replyTo when set.
func (c *RESTClient) SendMessage(ctx context.Context, channelID, guildID, replyTo, content string) error {
	body := sendMessageBody{Content: content}
	if replyTo != "" {
		body.MessageReference = &MessageReference{MessageID: replyTo, ChannelID: channelID, GuildID: guildID}
	}

	path := fmt.Sprintf("/channels/%s/messages", url.PathEscape(channelID))
	_, err := c.withRetries(ctx, "send_message", http.MethodPost, path, body)
	return err
}

// withRetries performs a request up to restAttempts times, waiting retry_after
// (or one second) between unsuccessful attempts.
func (c *RESTClient) withRetries(ctx context.Context, endpoint, method, path string, body interface{}) (*restResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= restAttempts; attempt++ {
		resp, err := c.do(ctx, endpoint, method, path, body)
		switch {
		case err == nil && resp.status >= 200 && resp.status < 300:
			metrics.RESTRequests.WithLabelValues(endpoint, "success").Inc()
			return resp, nil
		case err != nil:
			lastErr = err
		default:
			lastErr = fmt.Errorf("%w: %s %s returned %d", ErrRequestFailed, method, endpoint, resp.status)
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		wait := time.Second
		if resp != nil && resp.retryAfter > 0 {
			wait = resp.retryAfter
		}
		logging.Warn().
			Err(lastErr).
			Str("endpoint", endpoint).
			Int("retries_remaining", restAttempts-attempt).
			Dur("wait", wait).
			Msg("Unexpected REST response")

		if attempt == restAttempts {
			break
		}
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	metrics.RESTRequests.WithLabelValues(endpoint, "failure").Inc()
	return nil, lastErr
}

// do sends one request through the limiter and breaker. Server errors and
// transport failures count against the breaker; other statuses are returned.
func (c *RESTClient) do(ctx context.Context, endpoint, method, path string, body interface{}) (*restResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}

	var serverErr *restResponse
	resp, err := c.cb.Execute(func() (*restResponse, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", c.token)
		if c.superProps != "" {
			req.Header.Set("X-Super-Properties", c.superProps)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		httpResp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		r := &restResponse{status: httpResp.StatusCode, body: data, retryAfter: parseRetryAfter(httpResp.Header, data)}
		if r.status >= 500 {
			serverErr = r
			return nil, fmt.Errorf("%w: server error %d", ErrRequestFailed, r.status)
		}
		return r, nil
	})
	if serverErr != nil {
		return serverErr, err
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.RESTRequests.WithLabelValues(endpoint, "rejected").Inc()
	}
	return resp, err
}

// parseRetryAfter reads the JSON retry_after field (seconds), then the Retry-After header.
func parseRetryAfter(h http.Header, body []byte) time.Duration {
	var rl struct {
		RetryAfter float64 `json:"retry_after"`
	}
	d := time.Duration(0)
	if json.Unmarshal(body, &rl) == nil && rl.RetryAfter > 0 {
		d = time.Duration(rl.RetryAfter * float64(time.Second))
	} else if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
			d = time.Duration(secs * float64(time.Second))
		}
	}
	if d > maxRetryAfter {
		d = maxRetryAfter
	}
	return d
}
