package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// APIKeyHeader — заголовок аутентификации n8n Public API.
	APIKeyHeader = "X-N8N-API-KEY"

	// RequestIDHeader — ID запуска, одинаковый для всех запросов одного вызова CLI.
	RequestIDHeader = "X-Request-Id"

	workflowsPath   = "/api/v1/workflows"
	maxResponseBody = 10 * 1024 * 1024 // 10 MB
)

// Названия операций для OperationObserver.
const (
	OpDeploy     = "deploy"
	OpList       = "list"
	OpActivate   = "activate"
	OpDeactivate = "deactivate"
)

// OperationObserver получает результат каждой операции клиента.
type OperationObserver func(op string, err error)

// --- API response wrappers ---

type listResponse struct {
	Data       []Workflow `json:"data"`
	NextCursor *string    `json:"nextCursor"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// --- Client ---

// Client — HTTP-клиент для n8n Public API.
type Client struct {
	baseURL    string
	apiKey     string
	requestID  string
	userAgent  string
	httpClient *http.Client
	transport  http.RoundTripper
	timeout    time.Duration
	logger     *slog.Logger
	observe    OperationObserver
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient задаёт готовый http.Client.
// WithTransport и WithTimeout в этом случае игнорируются.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTransport задаёт RoundTripper (например, с метриками).
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

// WithTimeout задаёт таймаут запроса. 0 — без таймаута.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger задаёт логгер.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRequestID задаёт значение заголовка X-Request-Id.
func WithRequestID(id string) Option {
	return func(c *Client) { c.requestID = id }
}

// WithUserAgent задаёт User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithOperationObserver подписывает observer на результаты операций.
func WithOperationObserver(fn OperationObserver) Option {
	return func(c *Client) { c.observe = fn }
}

// NewClient создаёт клиент для n8n инстанса.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		userAgent: "n8n-deploy",
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: c.transport,
			Timeout:   c.timeout,
		}
	}
	if c.requestID == "" {
		c.requestID = uuid.NewString()
	}

	return c
}

// BaseURL возвращает адрес инстанса без завершающего слэша.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RequestID возвращает ID, отправляемый в X-Request-Id.
func (c *Client) RequestID() string {
	return c.requestID
}

// WorkflowURL возвращает ссылку на workflow в редакторе n8n.
func (c *Client) WorkflowURL(id WorkflowID) string {
	return c.baseURL + "/workflow/" + url.PathEscape(id.String())
}

// --- Workflows ---

// Deploy создаёт новый workflow из документа.
//
// Операция не идемпотентна: каждый вызов создаёт новый workflow.
func (c *Client) Deploy(ctx context.Context, doc Document) (wf *Workflow, err error) {
	defer func() { c.observeOp(OpDeploy, err) }()

	if doc == nil {
		return nil, ErrInvalidDocument
	}

	var created Workflow
	if err := c.doJSON(ctx, http.MethodPost, workflowsPath, doc, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// List возвращает workflows первой страницы без фильтров.
// Пустой список — не ошибка.
func (c *Client) List(ctx context.Context) ([]Workflow, error) {
	page, err := c.ListPage(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}
	return page.Workflows, nil
}

// ListPage возвращает одну страницу workflows с фильтрацией.
func (c *Client) ListPage(ctx context.Context, opts ListOptions) (page *WorkflowPage, err error) {
	defer func() { c.observeOp(OpList, err) }()

	path := workflowsPath
	if params := opts.values(); len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	var lr listResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &lr); err != nil {
		return nil, err
	}

	page = &WorkflowPage{Workflows: lr.Data}
	if page.Workflows == nil {
		page.Workflows = []Workflow{}
	}
	if lr.NextCursor != nil {
		page.NextCursor = *lr.NextCursor
	}
	return page, nil
}

// Activate активирует workflow.
func (c *Client) Activate(ctx context.Context, id string) error {
	return c.SetActive(ctx, id, true)
}

// Deactivate деактивирует workflow.
func (c *Client) Deactivate(ctx context.Context, id string) error {
	return c.SetActive(ctx, id, false)
}

// SetActive переключает активность workflow.
// Пустой id — ErrEmptyWorkflowID без обращения к серверу.
func (c *Client) SetActive(ctx context.Context, id string, active bool) (err error) {
	action := OpDeactivate
	if active {
		action = OpActivate
	}
	defer func() { c.observeOp(action, err) }()

	id = strings.TrimSpace(id)
	if id == "" {
		return ErrEmptyWorkflowID
	}

	return c.doJSON(ctx, http.MethodPost, workflowsPath+"/"+url.PathEscape(id)+"/"+action, nil, nil)
}

func (o ListOptions) values() url.Values {
	params := url.Values{}
	if o.Active != nil {
		params.Set("active", strconv.FormatBool(*o.Active))
	}
	if o.Name != "" {
		params.Set("name", o.Name)
	}
	if len(o.Tags) > 0 {
		params.Set("tags", strings.Join(o.Tags, ","))
	}
	if o.Limit > 0 {
		params.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Cursor != "" {
		params.Set("cursor", o.Cursor)
	}
	return params
}

// --- HTTP helpers ---

func (c *Client) doJSON(ctx context.Context, method, path string, body any, result any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	if result == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
		return nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(APIKeyHeader, c.apiKey)
	req.Header.Set(RequestIDHeader, c.requestID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("n8n request failed",
			"method", method,
			"path", path,
			"duration", time.Since(start),
			"error", err,
		)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	c.logger.Debug("n8n request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	return resp, nil
}

// checkError превращает не-2xx ответ в *RemoteError.
// Тело сохраняется как есть; если это JSON с полем message, оно выносится в Message.
func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// при ошибке чтения оставляем то, что успели прочитать
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	re := &RemoteError{
		StatusCode: resp.StatusCode,
		Body:       string(data),
		BodyErr:    err,
	}
	if err != nil {
		c.logger.Debug("failed to read error response body",
			"status", resp.StatusCode,
			"read_bytes", len(data),
			"error", err,
		)
	}

	var er errorResponse
	if err := json.Unmarshal(data, &er); err == nil {
		re.Message = er.Message
	}

	return re
}

func (c *Client) observeOp(op string, err error) {
	if c.observe != nil {
		c.observe(op, err)
	}
}
