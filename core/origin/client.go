// Package origin talks to the platform backend on behalf of the caller.
package origin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// maxBodySize bounds an origin reply; larger bodies are refused, never cut.
var maxBodySize int64 = 10 << 20

var ErrBodyTooLarge = errors.New("origin reply exceeds the size limit")

var emptySuccess = json.RawMessage("[]")

type (
	// Request describes one call to the origin. Body is sent as JSON unless nil.
	Request struct {
		Method string
		Path   string
		Query  url.Values
		Token  string
		Body   interface{}
	}

	// Response holds the origin status and a body that is always valid JSON.
	Response struct {
		StatusCode int
		Body       json.RawMessage
	}

	// Doer is anything that can forward a Request to the origin.
	Doer interface {
		Do(ctx context.Context, req Request) (Response, error)
	}

	Client struct {
		baseURL string
		http    *http.Client
	}

	ctxKey int
)

const requestIDKey ctxKey = iota

var _ Doer = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// WithRequestID stores the id propagated to the origin as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	u := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		switch b := req.Body.(type) {
		case json.RawMessage:
			body = bytes.NewReader(b)
		case []byte:
			body = bytes.NewReader(b)
		default:
			data, err := json.Marshal(b)
			if err != nil {
				return Response{}, errors.Wrap(err, "encoding request body")
			}
			body = bytes.NewReader(data)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return Response{}, errors.Wrap(err, "building origin request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}
	if id := requestID(ctx); id != "" {
		httpReq.Header.Set("X-Request-ID", id)
	}

	start := time.Now()
	res, err := c.http.Do(httpReq)
	if err != nil {
		observe(req.Method, "error", start)
		return Response{}, errors.Wrapf(err, "%s %s", req.Method, req.Path)
	}
	defer func() { _ = res.Body.Close() }()
	observe(req.Method, strconv.Itoa(res.StatusCode), start)

	data, err := ioutil.ReadAll(io.LimitReader(res.Body, maxBodySize+1))
	if err != nil {
		return Response{}, errors.Wrapf(err, "reading %s %s", req.Method, req.Path)
	}
	if int64(len(data)) > maxBodySize {
		return Response{}, errors.Wrapf(ErrBodyTooLarge, "reading %s %s", req.Method, req.Path)
	}
	return NewResponse(res.StatusCode, data), nil
}

// NewResponse normalises an origin reply: empty and non-JSON bodies become
// [] on success and an error object otherwise.
func NewResponse(status int, data []byte) Response {
	data = bytes.TrimSpace(data)
	if status == http.StatusNoContent || len(data) == 0 || !json.Valid(data) {
		if status < http.StatusBadRequest {
			if status == http.StatusNoContent {
				status = http.StatusOK
			}
			return Response{StatusCode: status, Body: emptySuccess}
		}
		msg, _ := json.Marshal(map[string]string{"error": statusText(status)})
		return Response{StatusCode: status, Body: msg}
	}
	return Response{StatusCode: status, Body: json.RawMessage(data)}
}

func statusText(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "upstream error"
}

// OK reports a 2xx status.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body into v.
func (r Response) Decode(v interface{}) error {
	return errors.Wrap(json.Unmarshal(r.Body, v), "decoding origin response")
}

// IsEmpty reports the normalised empty success value.
func (r Response) IsEmpty() bool {
	return bytes.Equal(r.Body, emptySuccess)
}
