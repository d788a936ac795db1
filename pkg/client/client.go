// Package client talks to the checkout HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	APIURL  string
	Timeout time.Duration
}

type Client struct {
	client *http.Client
	auth   *AuthTransport
	config Config

	cacheMu  sync.RWMutex
	receipts map[string]string
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	transport := &AuthTransport{Base: http.DefaultTransport}
	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		auth:     transport,
		config:   cfg,
		receipts: make(map[string]string),
	}
}

// AuthTransport adds the bearer token, once there is one, and asks for brotli.
type AuthTransport struct {
	Base http.RoundTripper

	mu    sync.RWMutex
	token string
}

func (t *AuthTransport) SetToken(token string) {
	t.mu.Lock()
	t.token = token
	t.mu.Unlock()
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	t.mu.RLock()
	token := t.token
	t.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept-Encoding", "br")
	return t.Base.RoundTrip(req)
}

func (c *Client) Register(ctx context.Context, fullName, username, password string) (*User, error) {
	body := map[string]string{"full_name": fullName, "username": username, "password": password}
	var u User
	if err := c.do(ctx, http.MethodPost, "/users/register", body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login exchanges credentials for a token, which is sent with every later request.
func (c *Client) Login(ctx context.Context, username, password string) error {
	form := url.Values{"username": {username}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIURL+"/users/login", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.send(req, &tok); err != nil {
		return err
	}
	c.auth.SetToken(tok.AccessToken)
	return nil
}

func (c *Client) CreateCheck(ctx context.Context, in CheckInput) (*Check, error) {
	var out Check
	if err := c.do(ctx, http.MethodPost, "/checks/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCheck(ctx context.Context, id string) (*Check, error) {
	var out Check
	if err := c.do(ctx, http.MethodGet, "/checks/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListOptions holds filters and order as query parameters; Page and PageSize
// are sent only when set.
type ListOptions struct {
	Filters  url.Values
	Order    string
	Page     int
	PageSize int
}

func (o ListOptions) query() string {
	q := url.Values{}
	for k, vs := range o.Filters {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if o.Order != "" {
		q.Set("order", o.Order)
	}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(o.PageSize))
	}
	return q.Encode()
}

func (c *Client) ListChecks(ctx context.Context, opts ListOptions) (*Page, error) {
	var out Page
	if err := c.do(ctx, http.MethodGet, "/checks/?"+opts.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAll reads the first page, then fetches the remaining pages concurrently
// and returns every item in order.
func (c *Client) ListAll(ctx context.Context, opts ListOptions) ([]Check, error) {
	opts.Page = 1
	first, err := c.ListChecks(ctx, opts)
	if err != nil {
		return nil, err
	}
	if first.Pages <= 1 {
		return first.Items, nil
	}

	pages := make([][]Check, first.Pages)
	pages[0] = first.Items

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for n := 2; n <= first.Pages; n++ {
		g.Go(func() error {
			o := opts
			o.Page = n
			o.PageSize = first.PageSize
			p, err := c.ListChecks(ctx, o)
			if err != nil {
				return fmt.Errorf("failed to fetch page %d: %w", n, err)
			}
			pages[n-1] = p.Items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Check
	for _, items := range pages {
		all = append(all, items...)
	}
	return all, nil
}

// Receipt returns the text receipt. Checks never change, so receipts are cached
// per id and width.
func (c *Client) Receipt(ctx context.Context, id string, width int) (string, error) {
	cacheKey := fmt.Sprintf("%s:%d", id, width)

	c.cacheMu.RLock()
	text, ok := c.receipts[cacheKey]
	c.cacheMu.RUnlock()
	if ok {
		return text, nil
	}

	target := fmt.Sprintf("%s/checks/%s/view?width=%d", c.config.APIURL, url.PathEscape(id), width)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	body := decodeBody(resp)
	defer body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp.StatusCode, body)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	c.cacheMu.Lock()
	c.receipts[cacheKey] = string(raw)
	c.cacheMu.Unlock()
	return string(raw), nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.APIURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	body := decodeBody(resp)
	defer body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp.StatusCode, body)
	}
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeBody(resp *http.Response) io.ReadCloser {
	if resp.Header.Get("Content-Encoding") == "br" {
		return &readCloserWrapper{Reader: brotli.NewReader(resp.Body), Closer: resp.Body}
	}
	return resp.Body
}

func apiError(status int, body io.Reader) error {
	apiErr := &ErrorResponse{StatusCode: status}
	raw, _ := io.ReadAll(body)
	if err := json.Unmarshal(raw, apiErr); err != nil || len(apiErr.Detail) == 0 {
		apiErr.Detail, _ = json.Marshal(string(raw))
	}
	return apiErr
}

type readCloserWrapper struct {
	io.Reader
	io.Closer
}
