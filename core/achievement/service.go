package achievement

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/pathwise/core"
	"github.com/trezcool/pathwise/core/origin"
)

var ErrMissingID = core.NewValidationError(errors.New("missing id"), core.FieldError{Field: "id", Error: "this field is required"})

type Service struct {
	origin   origin.Doer
	validate *validator.Validate
}

func NewService(o origin.Doer, validate *validator.Validate) *Service {
	return &Service{origin: o, validate: validate}
}

func path(segments ...string) (string, error) {
	p := "/api"
	for _, s := range segments {
		if s == "" {
			return "", ErrMissingID
		}
		p += "/" + url.PathEscape(s)
	}
	return p, nil
}

func (svc *Service) forward(ctx context.Context, method, token string, query url.Values, body interface{}, segments ...string) (origin.Response, error) {
	p, err := path(segments...)
	if err != nil {
		return origin.Response{}, err
	}
	res, err := svc.origin.Do(ctx, origin.Request{Method: method, Path: p, Query: query, Token: token, Body: body})
	return res, errors.Wrapf(err, "forwarding %s %s", method, p)
}

func (svc *Service) List(ctx context.Context, token string, query url.Values) (origin.Response, error) {
	return svc.forward(ctx, http.MethodGet, token, query, nil, "achievements")
}

func (svc *Service) Get(ctx context.Context, token, id string) (origin.Response, error) {
	return svc.forward(ctx, http.MethodGet, token, nil, nil, "achievements", id)
}

func (svc *Service) Create(ctx context.Context, token string, na NewAchievement) (origin.Response, error) {
	if err := na.Validate(svc.validate); err != nil {
		return origin.Response{}, err
	}
	return svc.forward(ctx, http.MethodPost, token, nil, na, "achievements")
}

func (svc *Service) Comments(ctx context.Context, token, id string) (origin.Response, error) {
	return svc.forward(ctx, http.MethodGet, token, nil, nil, "achievements", id, "comments")
}

func (svc *Service) AddComment(ctx context.Context, token, id string, nc NewComment) (origin.Response, error) {
	if err := nc.Validate(svc.validate); err != nil {
		return origin.Response{}, err
	}
	return svc.forward(ctx, http.MethodPost, token, nil, nc, "achievements", id, "comments")
}

func (svc *Service) Like(ctx context.Context, token, id string) (origin.Response, error) {
	return svc.forward(ctx, http.MethodPost, token, nil, nil, "achievements", id, "like")
}

// AdminUpdate edits any achievement regardless of its owner.
func (svc *Service) AdminUpdate(ctx context.Context, token, id string, ua UpdateAchievement) (origin.Response, error) {
	if err := ua.Validate(svc.validate); err != nil {
		return origin.Response{}, err
	}
	return svc.forward(ctx, http.MethodPut, token, nil, ua, "admin", "achievements", id)
}

// AdminDelete deletes any achievement regardless of its owner.
func (svc *Service) AdminDelete(ctx context.Context, token, id string) (origin.Response, error) {
	return svc.forward(ctx, http.MethodDelete, token, nil, nil, "admin", "achievements", id)
}

func (svc *Service) AdminComments(ctx context.Context, token string, query url.Values) (origin.Response, error) {
	return svc.forward(ctx, http.MethodGet, token, query, nil, "admin", "comments")
}

func (svc *Service) AdminDeleteComment(ctx context.Context, token, id string) (origin.Response, error) {
	return svc.forward(ctx, http.MethodDelete, token, nil, nil, "admin", "comments", id)
}
