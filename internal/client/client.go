// Package client talks to the trading bot backend that serves the dashboard.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"trading-dashboard-go/internal/models"

	"go.uber.org/zap"
)

// RequestIDHeader 携带命令请求的关联ID
const RequestIDHeader = "X-Request-ID"

const maxErrorBody = 4096

// Command 是可以发送给机器人的特权命令
type Command string

const (
	CommandStart           Command = "start"
	CommandStop            Command = "stop"
	CommandClosePosition   Command = "close"
	CommandDeleteLastTrade Command = "delete"
	CommandResetBalance    Command = "reset"
)

var commandPaths = map[Command]string{
	CommandStart:           "/api/start_bot",
	CommandStop:            "/api/stop_bot",
	CommandClosePosition:   "/api/close_position",
	CommandDeleteLastTrade: "/api/delete_last_trade",
	CommandResetBalance:    "/api/reset_balance",
}

// Commands lists every command in a stable order.
var Commands = []Command{CommandStart, CommandStop, CommandClosePosition, CommandDeleteLastTrade, CommandResetBalance}

// ParseCommand 解析用户输入的命令名
func ParseCommand(s string) (Command, error) {
	c := Command(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := commandPaths[c]; !ok {
		return "", fmt.Errorf("unknown command %q", s)
	}
	return c, nil
}

// Path returns the endpoint of the command.
func (c Command) Path() string {
	return commandPaths[c]
}

// CommandResult 是命令成功时后端返回的内容
type CommandResult struct {
	Message string `json:"message,omitempty"`
}

type commandBody struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Client 是后端 REST API 的客户端
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient 创建一个新的后端客户端
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	raw := strings.TrimSpace(baseURL)
	if raw == "" {
		return nil, fmt.Errorf("base_url must not be empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse base_url: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// Status 获取 /api/status
func (c *Client) Status(ctx context.Context) (*models.StatusSnapshot, error) {
	var s models.StatusSnapshot
	if err := c.getJSON(ctx, "status", "/api/status", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ChartData 获取指定周期的K线和SAR点
func (c *Client) ChartData(ctx context.Context, tf models.Timeframe) (*models.ChartData, error) {
	q := url.Values{}
	q.Set("timeframe", string(tf))
	var d models.ChartData
	if err := c.getJSON(ctx, "chart_data", "/api/chart_data", q, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// TopGainers 获取涨幅榜
func (c *Client) TopGainers(ctx context.Context) (*models.TopGainers, error) {
	var g models.TopGainers
	if err := c.getJSON(ctx, "top_gainers", "/api/top_gainers", nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// VerifyPassword asks the backend whether password is correct. A non-2xx
// response counts as "not verified" as long as its body parses.
func (c *Client) VerifyPassword(ctx context.Context, password string) (bool, error) {
	payload, err := json.Marshal(map[string]string{"password": password})
	if err != nil {
		return false, fmt.Errorf("marshal password payload: %w", err)
	}
	resp, body, err := c.do(ctx, "verify_password", http.MethodPost, "/api/verify_password", nil, payload, "")
	if err != nil {
		return false, err
	}

	var out struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return false, &TransportError{Op: "verify_password", Err: fmt.Errorf("decode response: %w", err)}
	}
	return out.Success && isSuccess(resp.StatusCode), nil
}

// Execute posts cmd. Non-2xx yields an APIError carrying the server's error
// message when the body has one; a 2xx body that does not parse is a
// TransportError.
func (c *Client) Execute(ctx context.Context, cmd Command, requestID string) (*CommandResult, error) {
	path := cmd.Path()
	if path == "" {
		return nil, fmt.Errorf("unknown command %q", cmd)
	}
	op := string(cmd)
	resp, body, err := c.do(ctx, op, http.MethodPost, path, nil, nil, requestID)
	if err != nil {
		return nil, err
	}

	var parsed commandBody
	parseErr := json.Unmarshal(body, &parsed)
	if !isSuccess(resp.StatusCode) {
		ae := &APIError{Op: op, StatusCode: resp.StatusCode}
		if parseErr == nil {
			ae.Message = parsed.Error
		}
		return nil, ae
	}
	if parseErr != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", parseErr)}
	}
	return &CommandResult{Message: parsed.Message}, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	resp, body, err := c.do(ctx, op, http.MethodGet, path, query, nil, "")
	if err != nil {
		return err
	}
	if !isSuccess(resp.StatusCode) {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// do 发送请求并读取完整响应体。只有请求未能完成时才返回错误。
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, payload []byte, requestID string) (*http.Response, []byte, error) {
	endpoint := c.resolve(path, query)

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if requestID != "" {
		req.Header.Set(RequestIDHeader, requestID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &TransportError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	c.logger.Debug("backend request done",
		zap.String("op", op),
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, data, nil
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	u.RawPath = ""
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	u.Fragment = ""
	return u.String()
}

func errorMessage(body []byte) string {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	var parsed commandBody
	if json.Unmarshal(body, &parsed) == nil {
		return parsed.Error
	}
	return ""
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
