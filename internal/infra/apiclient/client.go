package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/empanada/internal/constants"
	"github.com/RoyceAzure/lab/empanada/internal/pkg/errs"
	"github.com/rs/zerolog"
)

// TokenSource 提供目前的 bearer token，沒有登入時回傳空字串
type TokenSource interface {
	Token() string
}

type TokenSourceFunc func() string

func (f TokenSourceFunc) Token() string { return f() }

// Client 集中處理 base URL、Authorization header 與錯誤分類
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	tokens     TokenSource
	logger     *zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

func WithLogger(l *zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api url %q", baseURL)
	}

	nop := zerolog.Nop()
	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{},
		logger:     &nop,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetTokenSource 登入服務建立後才注入
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ImageURL 圖片路徑轉成完整網址
// http 開頭原樣回傳，"/" 開頭接在 base 後，其餘放在 /static/images/ 下
func (c *Client) ImageURL(image string) string {
	if strings.HasPrefix(image, "http") {
		return image
	}
	if strings.HasPrefix(image, "/") {
		return c.BaseURL() + image
	}
	return c.BaseURL() + constants.StaticImagePath + image
}

func (c *Client) endpoint(path string) string {
	return c.BaseURL() + path
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errs.Wrap(op, errs.KindValidation, err, "")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return errs.Wrap(op, errs.KindValidation, err, "")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, op, out)
}

func (c *Client) do(req *http.Request, op string, out any) error {
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("op", op).Str("method", req.Method).Str("path", req.URL.Path).Msg("request could not complete")
		return errs.Wrap(op, errs.KindNetwork, err, constants.MsgConnectionError)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		c.logger.Error().Err(err).Str("op", op).Msg("read response body failed")
		return errs.Wrap(op, errs.KindNetwork, err, constants.MsgConnectionError)
	}

	c.logger.Debug().
		Str("op", op).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", res.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request completed")

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		se := mapStatus(op, res, raw)
		if se.Kind == errs.KindServer || se.Kind == errs.KindUnknown {
			c.logger.Error().Str("op", op).Int("status", res.StatusCode).Str("body", truncate(raw, 256)).Msg("unexpected api failure")
		}
		return se
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Error().Err(err).Str("op", op).Str("body", truncate(raw, 256)).Msg("malformed api response")
		return errs.Wrap(op, errs.KindDecode, err, constants.MsgRequestFailed)
	}
	return nil
}

// errorBody FastAPI 使用 detail，也接受 error/message
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func serverReason(raw []byte) string {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if len(body.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(body.Detail, &detail); err == nil {
			return detail
		}
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}

func mapStatus(op string, res *http.Response, raw []byte) *errs.ShopError {
	se := &errs.ShopError{
		Op:     op,
		Status: res.StatusCode,
		Reason: serverReason(raw),
	}

	switch {
	case res.StatusCode == http.StatusTooManyRequests:
		se.Kind = errs.KindRateLimited
		// 限流訊息固定，提示使用者等待
		se.Reason = constants.MsgRateLimited
		se.RetryAfter = parseRetryAfter(res.Header.Get("Retry-After"))
	case res.StatusCode == http.StatusUnauthorized:
		se.Kind = errs.KindUnauthorized
	case res.StatusCode == http.StatusForbidden:
		se.Kind = errs.KindForbidden
	case res.StatusCode == http.StatusNotFound:
		se.Kind = errs.KindNotFound
	case res.StatusCode >= 500:
		se.Kind = errs.KindServer
	case res.StatusCode >= 400:
		se.Kind = errs.KindBadRequest
	default:
		se.Kind = errs.KindUnknown
	}

	// 伺服器沒給訊息時保持空白，由呼叫端決定預設訊息
	return se
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func truncate(raw []byte, n int) string {
	if len(raw) <= n {
		return string(raw)
	}
	return string(raw[:n]) + "..."
}

// asStockConflict 建立訂單時 409，或訊息為庫存不足的 400，代表庫存已變動
// 其他 400 (空訂單、數量錯誤) 維持 BadRequest
func asStockConflict(err error) error {
	var se *errs.ShopError
	if !errors.As(err, &se) {
		return err
	}
	switch {
	case se.Status == http.StatusConflict:
		se.Kind = errs.KindStockConflict
	case se.Status == http.StatusBadRequest && strings.HasPrefix(se.Reason, constants.MsgStockConflictPrefix):
		se.Kind = errs.KindStockConflict
	}
	return err
}
