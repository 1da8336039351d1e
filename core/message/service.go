package message

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/pathwise/core"
	"github.com/trezcool/pathwise/core/origin"
)

var ErrMissingID = core.NewValidationError(errors.New("missing id"), core.FieldError{Field: "id", Error: "this field is required"})

// NewMessage is a direct message sent to another user.
type NewMessage struct {
	RecipientID string `json:"recipientId" validate:"required"`
	Content     string `json:"content" validate:"required,nonblank,max=5000"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.RecipientID = core.CleanString(nm.RecipientID)
	nm.Content = core.CleanString(nm.Content)
	return validate.Struct(nm)
}

// Unread is the normalised unread-count payload.
type Unread struct {
	Count int `json:"count"`
}

type Service struct {
	origin   origin.Doer
	validate *validator.Validate
}

func NewService(o origin.Doer, validate *validator.Validate) *Service {
	return &Service{origin: o, validate: validate}
}

func (svc *Service) forward(ctx context.Context, req origin.Request) (origin.Response, error) {
	res, err := svc.origin.Do(ctx, req)
	return res, errors.Wrapf(err, "forwarding %s %s", req.Method, req.Path)
}

func (svc *Service) Conversations(ctx context.Context, token string) (origin.Response, error) {
	return svc.forward(ctx, origin.Request{Method: http.MethodGet, Path: "/api/messages/conversations", Token: token})
}

// Thread returns the messages exchanged with userID.
func (svc *Service) Thread(ctx context.Context, token, userID string, query url.Values) (origin.Response, error) {
	if userID == "" {
		return origin.Response{}, ErrMissingID
	}
	return svc.forward(ctx, origin.Request{
		Method: http.MethodGet,
		Path:   "/api/messages/" + url.PathEscape(userID),
		Query:  query,
		Token:  token,
	})
}

func (svc *Service) Send(ctx context.Context, token string, nm NewMessage) (origin.Response, error) {
	if err := nm.Validate(svc.validate); err != nil {
		return origin.Response{}, err
	}
	return svc.forward(ctx, origin.Request{Method: http.MethodPost, Path: "/api/messages", Token: token, Body: nm})
}

func (svc *Service) Delete(ctx context.Context, token, id string) (origin.Response, error) {
	if id == "" {
		return origin.Response{}, ErrMissingID
	}
	return svc.forward(ctx, origin.Request{Method: http.MethodDelete, Path: "/api/messages/" + url.PathEscape(id), Token: token})
}

// UnreadCount returns the caller's unread count. Successful responses are
// rewritten to {"count": n}; failures are returned as they came.
func (svc *Service) UnreadCount(ctx context.Context, token string) (origin.Response, error) {
	res, err := svc.forward(ctx, origin.Request{Method: http.MethodGet, Path: "/api/messages/unread-count", Token: token})
	if err != nil || !res.OK() {
		return res, err
	}
	body, err := json.Marshal(Unread{Count: ParseUnreadCount(res.Body)})
	if err != nil {
		return origin.Response{}, errors.Wrap(err, "encoding unread count")
	}
	return origin.Response{StatusCode: res.StatusCode, Body: body}, nil
}

// ParseUnreadCount accepts a bare number, {"count": n} or {"unreadCount": n}.
// Anything else counts as 0.
func ParseUnreadCount(body []byte) int {
	body = bytes.TrimSpace(body)
	var n float64
	if err := json.Unmarshal(body, &n); err == nil {
		return int(n)
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(body, &obj); err != nil {
		return 0
	}
	for _, key := range []string{"count", "unreadCount", "unread"} {
		if v, ok := obj[key].(float64); ok {
			return int(v)
		}
	}
	return 0
}
