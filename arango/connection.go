package arango

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kelsos/arango-go/internal/logger"
)

// Config holds the settings for a server connection.
type Config struct {
	Protocol string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Timeout  time.Duration

	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Connection is the transport for a single database: it performs every
// HTTP round trip against `{protocol}://{host}:{port}/_db/{database}`.
// A Connection is immutable after construction and safe to share across
// executions and goroutines.
//
// Connection is itself the immediate execution: Submit sends the request
// synchronously and applies the handler to the response.
type Connection struct {
	urlPrefix  string
	database   string
	username   string
	password   string
	httpClient *http.Client
}

// NewConnection creates a connection from the given config, filling in
// the server defaults for any zero field.
func NewConnection(cfg Config) *Connection {
	if cfg.Protocol == "" {
		cfg.Protocol = "http"
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 8529
	}
	if cfg.Database == "" {
		cfg.Database = "_system"
	}
	if cfg.Username == "" {
		cfg.Username = "root"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Connection{
		urlPrefix: fmt.Sprintf("%s://%s:%d/_db/%s",
			strings.Trim(cfg.Protocol, "/"),
			strings.Trim(cfg.Host, "/"),
			cfg.Port,
			cfg.Database,
		),
		database:   cfg.Database,
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: httpClient,
	}
}

// Database returns the name of the database this connection targets.
func (c *Connection) Database() string {
	return c.database
}

// BaseURL returns the URL prefix shared by every request on this connection.
func (c *Connection) BaseURL() string {
	return c.urlPrefix
}

// Do executes one request against the server and returns the raw response.
// This is the only method in the package that performs network I/O.
func (c *Connection) Do(ctx context.Context, req *Request) (*Response, error) {
	url := c.urlPrefix + req.Path()
	start := time.Now()
	logger.Debug("Starting %s request to %s", req.Method, url)

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.SetBasicAuth(c.username, c.password)
	if len(req.Body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	httpRes, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.Error("Request to %s failed after %v: %v", url, time.Since(start), err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpRes.Body.Close()

	resBody, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	logger.Debug("Request to %s completed in %v with status %d",
		url, time.Since(start), httpRes.StatusCode)

	return &Response{
		Method:     req.Method,
		URL:        url,
		StatusCode: httpRes.StatusCode,
		StatusText: strings.TrimSpace(strings.TrimPrefix(httpRes.Status, fmt.Sprint(httpRes.StatusCode))),
		Headers:    httpRes.Header,
		Body:       resBody,
	}, nil
}

// Submit implements Execution with immediate semantics: the request is sent
// synchronously and the handler's payload (or failure) surfaces at the call
// site. The returned Job is always nil.
func (c *Connection) Submit(ctx context.Context, req *Request, handle Handler) (json.RawMessage, Job, error) {
	res, err := c.Do(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	raw, err := handle(res)
	if err != nil {
		return nil, nil, err
	}
	return raw, nil, nil
}

// Ping checks that the server is reachable and answering API calls.
func (c *Connection) Ping(ctx context.Context) error {
	res, err := c.Do(ctx, &Request{Method: http.MethodGet, Endpoint: "/_api/version"})
	if err != nil {
		return err
	}
	if !res.IsSuccess() {
		return fmt.Errorf("ping: %w", newServerError(res))
	}
	return nil
}

// WaitForReady pings the server once per delay until it answers or the
// attempts run out.
func (c *Connection) WaitForReady(ctx context.Context, attempts int, delay time.Duration) bool {
	logger.Info("Checking server readiness...")

	for attempt := 1; attempt <= attempts; attempt++ {
		logger.Info("Checking server readiness (attempt %d/%d)...", attempt, attempts)

		if err := c.Ping(ctx); err == nil {
			logger.Info("Server is ready!")
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}
	}

	logger.Error("Server failed to become ready after %d attempts", attempts)
	return false
}
