// Package client is a small Go client of the gateway for learner tooling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/pathwise/core"
	"github.com/trezcool/pathwise/core/course"
	"github.com/trezcool/pathwise/core/feedback"
)

var ErrEmptyComment = core.NewValidationError(nil, core.FieldError{Field: "comment", Error: "this field is required"})

// APIError is a non 2xx answer of the gateway.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client authenticating with the token kept in store.
func New(baseURL string, store TokenStore, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: &Transport{Store: store},
		},
	}
}

// NewWithHTTPClient uses hc as is; its transport is expected to authenticate.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer func() { _ = res.Body.Close() }()

	data, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "reading %s %s", method, path)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return newAPIError(res.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return errors.Wrapf(json.Unmarshal(data, out), "decoding %s %s", method, path)
}

func newAPIError(status int, data []byte) *APIError {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(data, &body)
	msg := body.Error
	if msg == "" {
		msg = body.Message
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: msg}
}

// IsUnauthorized reports a 401 answer, after which the token is gone.
func IsUnauthorized(err error) bool {
	apiErr, ok := errors.Cause(err).(*APIError)
	return ok && apiErr.StatusCode == http.StatusUnauthorized
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	err := c.do(ctx, http.MethodGet, "/api/messages/unread-count", nil, &out)
	return out.Count, err
}

// CourseTasks loads the tasks of a course from its detail.
func (c *Client) CourseTasks(ctx context.Context, courseID string) ([]course.Task, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/courses/"+url.PathEscape(courseID), nil, &raw); err != nil {
		return nil, err
	}
	tasks, err := course.DecodeTasks(raw)
	if err != nil {
		return nil, errors.Wrap(err, "decoding course tasks")
	}
	course.SortTasks(tasks)
	return tasks, nil
}

func (c *Client) Progress(ctx context.Context, courseID string) (course.Progress, error) {
	var p course.Progress
	err := c.do(ctx, http.MethodGet, "/api/courses/"+url.PathEscape(courseID)+"/progress", nil, &p)
	return p, err
}

func (c *Client) ToggleTask(ctx context.Context, courseID string, taskID course.ID) (course.Progress, error) {
	var p course.Progress
	path := "/api/courses/" + url.PathEscape(courseID) + "/tasks/" + url.PathEscape(string(taskID)) + "/toggle"
	err := c.do(ctx, http.MethodPost, path, nil, &p)
	return p, err
}

// SubmitFeedback rejects a blank comment without calling the gateway.
func (c *Client) SubmitFeedback(ctx context.Context, fb feedback.Feedback) error {
	fb.Comment = core.CleanString(fb.Comment)
	if fb.Comment == "" {
		return ErrEmptyComment
	}
	return c.do(ctx, http.MethodPost, "/api/feedback", fb, nil)
}
