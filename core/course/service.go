package course

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/trezcool/pathwise/core"
	"github.com/trezcool/pathwise/core/origin"
)

var ErrMissingID = core.NewValidationError(errors.New("missing id"), core.FieldError{Field: "id", Error: "this field is required"})

type Service struct {
	origin origin.Doer
}

func NewService(o origin.Doer) *Service {
	return &Service{origin: o}
}

func (svc *Service) forward(ctx context.Context, req origin.Request) (origin.Response, error) {
	res, err := svc.origin.Do(ctx, req)
	return res, errors.Wrapf(err, "forwarding %s %s", req.Method, req.Path)
}

func (svc *Service) List(ctx context.Context, token string, query url.Values) (origin.Response, error) {
	return svc.forward(ctx, origin.Request{Method: http.MethodGet, Path: "/api/courses", Query: query, Token: token})
}

func (svc *Service) Get(ctx context.Context, token, id string) (origin.Response, error) {
	if id == "" {
		return origin.Response{}, ErrMissingID
	}
	return svc.forward(ctx, origin.Request{Method: http.MethodGet, Path: "/api/courses/" + url.PathEscape(id), Token: token})
}

// Tasks returns the ordered tasks of a course. When the origin refuses, the
// returned response is meant to be relayed and tasks is nil.
func (svc *Service) Tasks(ctx context.Context, token, courseID string) ([]Task, origin.Response, error) {
	if courseID == "" {
		return nil, origin.Response{}, ErrMissingID
	}
	res, err := svc.forward(ctx, origin.Request{
		Method: http.MethodGet,
		Path:   "/api/courses/" + url.PathEscape(courseID) + "/tasks",
		Token:  token,
	})
	if err != nil || !res.OK() {
		return nil, res, err
	}
	tasks, err := DecodeTasks(res.Body)
	if err != nil {
		return nil, res, errors.Wrap(err, "decoding tasks")
	}
	SortTasks(tasks)
	return tasks, res, nil
}

// Progress computes the caller's progress in a course.
func (svc *Service) Progress(ctx context.Context, token, courseID string) (origin.Response, error) {
	tasks, res, err := svc.Tasks(ctx, token, courseID)
	if err != nil || !res.OK() {
		return res, err
	}
	return progressResponse(res.StatusCode, ComputeProgress(tasks))
}

// ToggleTask flips the completion of a task then returns the recomputed progress.
func (svc *Service) ToggleTask(ctx context.Context, token, courseID, taskID string) (origin.Response, error) {
	if courseID == "" || taskID == "" {
		return origin.Response{}, ErrMissingID
	}
	res, err := svc.forward(ctx, origin.Request{
		Method: http.MethodPut,
		Path:   "/api/tasks/" + url.PathEscape(taskID) + "/toggle",
		Token:  token,
	})
	if err != nil || !res.OK() {
		return res, err
	}
	return svc.Progress(ctx, token, courseID)
}

func progressResponse(status int, p Progress) (origin.Response, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return origin.Response{}, errors.Wrap(err, "encoding progress")
	}
	return origin.Response{StatusCode: status, Body: body}, nil
}
