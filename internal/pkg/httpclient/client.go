// internal/pkg/httpclient/client.go
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotFound 表示下游返回了 404，调用方据此区分“资源不存在”和其它故障。
var ErrNotFound = errors.New("httpclient: resource not found")

// StatusError 携带下游的非 2xx 状态码和响应体，供调用方按业务语义翻译。
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("downstream returned status %d: %s", e.StatusCode, e.Body)
}

// Client 是一个可追踪的 HTTP 客户端。
// 超时完全由每次调用传入的 context 控制，客户端本身不设 Timeout。
type Client struct {
	Tracer     trace.Tracer
	HTTPClient *http.Client
}

// NewClient 创建客户端实例，连接池参数在这里统一配置。
func NewClient(tracer trace.Tracer) *Client {
	return &Client{
		Tracer: tracer,
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		},
	}
}

// Post 向下游服务发送一个带 query 参数的 POST 请求，并注入追踪头。
func (c *Client) Post(ctx context.Context, serviceURL string, params url.Values) error {
	_, err := c.do(ctx, http.MethodPost, serviceURL, params)
	return err
}

// GetJSON 发送 GET 请求并把响应体反序列化到 out。
func (c *Client) GetJSON(ctx context.Context, serviceURL string, params url.Values, out interface{}) error {
	body, err := c.do(ctx, http.MethodGet, serviceURL, params)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "decode response from %s", serviceURL)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, serviceURL string, params url.Values) ([]byte, error) {
	parsedURL, err := url.Parse(serviceURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse service url")
	}
	spanName := fmt.Sprintf("call-%s", strings.Split(parsedURL.Host, ":")[0])

	ctx, span := c.Tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	downstreamURL := *parsedURL
	q := downstreamURL.Query()
	for key, values := range params {
		for _, value := range values {
			q.Add(key, value)
		}
	}
	downstreamURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, method, downstreamURL.String(), nil)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("http.url", downstreamURL.String()),
		attribute.String("http.method", method),
	)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "read response body")
	}

	if resp.StatusCode == http.StatusNotFound {
		span.SetStatus(codes.Error, resp.Status)
		return nil, ErrNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		err := &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		span.RecordError(err)
		span.SetStatus(codes.Error, resp.Status)
		return nil, err
	}
	return body, nil
}
