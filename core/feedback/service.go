package feedback

import (
	"context"
	"net/http"
	"net/mail"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/pathwise/core"
	"github.com/trezcool/pathwise/core/auth"
	"github.com/trezcool/pathwise/core/origin"
)

// Feedback is a comment left by a user about the platform.
type Feedback struct {
	Comment string `json:"comment" validate:"required,nonblank,max=2000"`
	Rating  int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Page    string `json:"page,omitempty" validate:"omitempty,max=500"`
}

func (fb *Feedback) Validate(validate *validator.Validate) error {
	fb.Comment = core.CleanString(fb.Comment)
	fb.Page = core.CleanString(fb.Page)
	return validate.Struct(fb)
}

type notification struct {
	Feedback
	Author string
}

type Service struct {
	origin     origin.Doer
	validate   *validator.Validate
	mailSvc    core.EmailService
	recipients []mail.Address
}

// NewService returns the feedback service. Staff listed in recipients get a
// copy of every accepted feedback.
func NewService(o origin.Doer, validate *validator.Validate, mailSvc core.EmailService, recipients []mail.Address) *Service {
	return &Service{
		origin:     o,
		validate:   validate,
		mailSvc:    mailSvc,
		recipients: recipients,
	}
}

func (svc *Service) Submit(ctx context.Context, id auth.Identity, token string, fb Feedback) (origin.Response, error) {
	if err := fb.Validate(svc.validate); err != nil {
		return origin.Response{}, err
	}
	res, err := svc.origin.Do(ctx, origin.Request{Method: http.MethodPost, Path: "/api/feedback", Token: token, Body: fb})
	if err != nil {
		return res, errors.Wrap(err, "forwarding feedback")
	}
	if res.OK() && len(svc.recipients) > 0 && svc.mailSvc != nil {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           svc.recipients,
			Subject:      "New feedback",
			TemplateName: "feedback",
			TemplateData: notification{Feedback: fb, Author: id.Name()},
		})
	}
	return res, nil
}
