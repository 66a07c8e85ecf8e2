/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"dsfstudio/internal/domain"
	"dsfstudio/internal/storage"
)

// DefaultRate bounds requests per second sent by a Client.
const DefaultRate = 5

// Client talks to a backend Server. It implements storage.Store so the
// editor can save to the cloud the same way it saves locally.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithRate sets the request rate limit (requests per second, burst 2).
func WithRate(perSecond float64) ClientOption {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), 2) }
}

// WithRetries configures retries on transport errors, 429 and 5xx.
func WithRetries(n int, wait time.Duration) ClientOption {
	return func(c *Client) { c.http.SetRetryCount(n).SetRetryWaitTime(wait) }
}

// NewClient creates a client for baseURL (a trailing slash is ignored).
// token may be empty for the unauthenticated endpoints.
func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	h := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(10*time.Second).
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})
	h.SetLogger(quietLogger{})
	if token != "" {
		h.SetAuthToken(token)
	}
	c := &Client{http: h, limiter: rate.NewLimiter(DefaultRate, 2)}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) { c.http.SetAuthToken(token) }

type apiError struct {
	Error string `json:"error"`
}

func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.http.R().SetContext(ctx).SetError(&apiError{}), nil
}

func check(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !resp.IsError() {
		return nil
	}
	msg := resp.Status()
	if e, ok := resp.Error().(*apiError); ok && e.Error != "" {
		msg = e.Error
	}
	switch resp.StatusCode() {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %s: %w", op, msg, storage.ErrNotFound)
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %s: %w", op, msg, ErrUnauthorized)
	}
	return fmt.Errorf("%s: server %d: %s", op, resp.StatusCode(), msg)
}

// Token asks the server for a bearer token and installs it on the client.
func (c *Client) Token(ctx context.Context, subject string, ttl time.Duration) (TokenResponse, error) {
	req, err := c.request(ctx)
	if err != nil {
		return TokenResponse{}, err
	}
	var out TokenResponse
	resp, err := req.SetBody(TokenRequest{Subject: subject, TTLSeconds: int64(ttl / time.Second)}).
		SetResult(&out).
		Post("/api/auth/token")
	if err := check("token", resp, err); err != nil {
		return TokenResponse{}, err
	}
	c.SetToken(out.Token)
	return out, nil
}

// Version returns the server build version.
func (c *Client) Version(ctx context.Context) (string, error) {
	req, err := c.request(ctx)
	if err != nil {
		return "", err
	}
	resp, err := req.Get("/version")
	if err := check("version", resp, err); err != nil {
		return "", err
	}
	return resp.String(), nil
}

func (c *Client) Get(ctx context.Context, id string) (domain.Project, error) {
	req, err := c.request(ctx)
	if err != nil {
		return domain.Project{}, err
	}
	resp, err := req.SetPathParam("id", id).Get("/api/works/{id}")
	if err := check("get work", resp, err); err != nil {
		return domain.Project{}, err
	}
	return storage.Decode(resp.Body())
}

// Put creates the work when p has no id and updates it otherwise. The
// assigned id is written back to p.
func (c *Client) Put(ctx context.Context, p *domain.Project) (string, error) {
	body, err := storage.Encode(*p)
	if err != nil {
		return "", err
	}
	req, err := c.request(ctx)
	if err != nil {
		return "", err
	}
	var ref WorkRef
	req = req.SetHeader("Content-Type", "application/json").SetBody(body).SetResult(&ref)
	var resp *resty.Response
	if p.ID.IsNull() {
		resp, err = req.Post("/api/works")
	} else {
		resp, err = req.SetPathParam("id", p.ID.String()).Put("/api/works/{id}")
	}
	if err := check("put work", resp, err); err != nil {
		return "", err
	}
	p.ID = domain.OptionalID(ref.ID)
	return ref.ID, nil
}

func (c *Client) List(ctx context.Context) ([]storage.Summary, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var out []storage.Summary
	resp, err := req.SetResult(&out).Get("/api/works")
	if err := check("list works", resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}
	resp, err := req.SetPathParam("id", id).Delete("/api/works/{id}")
	return check("delete work", resp, err)
}

type quietLogger struct{}

func (quietLogger) Errorf(string, ...interface{}) {}
func (quietLogger) Warnf(string, ...interface{})  {}
func (quietLogger) Debugf(string, ...interface{}) {}
