// Package audit keeps a local trail of admin overrides and their upstream outcome.
package audit

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/pathwise/core"
)

// Outcomes
const (
	OutcomeForwarded = "forwarded"
	OutcomeMasked    = "masked"
	OutcomeFailed    = "failed"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

var (
	orderingFields  = map[string]bool{"created_at": true, "actor": true, "action": true, "status": true}
	defaultOrdering = []core.DBOrdering{{Field: "created_at", Ascending: false}}
)

type (
	Entry struct {
		ID        string    `db:"id" json:"id"`
		Actor     string    `db:"actor" json:"actor"`
		Action    string    `db:"action" json:"action"`
		Target    string    `db:"target" json:"target"`
		Outcome   string    `db:"outcome" json:"outcome"`
		Status    int       `db:"status" json:"status"`
		CreatedAt time.Time `db:"created_at" json:"createdAt"`
	}

	// Filter applies AND operation on its non-empty fields.
	Filter struct {
		Actor   string
		Action  string
		Outcome string
		Limit   int
	}

	Repository interface {
		CreateEntry(ctx context.Context, entry Entry) error
		QueryEntries(ctx context.Context, filter Filter, ordering ...core.DBOrdering) ([]Entry, error)
	}

	Service struct {
		repo Repository
		now  func() time.Time
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Record stores an entry for an admin override. The outcome derives from the
// upstream status unless masked is set.
func (svc *Service) Record(ctx context.Context, actor, action, target string, status int, masked bool) (Entry, error) {
	outcome := OutcomeForwarded
	switch {
	case masked:
		outcome = OutcomeMasked
	case status == 0 || status >= 400:
		outcome = OutcomeFailed
	}

	entry := Entry{
		ID:        uuid.New().String(),
		Actor:     actor,
		Action:    action,
		Target:    target,
		Outcome:   outcome,
		Status:    status,
		CreatedAt: svc.now().UTC(),
	}
	if err := svc.repo.CreateEntry(ctx, entry); err != nil {
		return Entry{}, errors.Wrap(err, "recording audit entry")
	}
	return entry, nil
}

func (svc *Service) Query(ctx context.Context, filter Filter, ordering ...core.DBOrdering) ([]Entry, error) {
	filter.Actor = core.CleanString(filter.Actor)
	filter.Action = core.CleanString(filter.Action)
	filter.Outcome = strings.ToLower(core.CleanString(filter.Outcome))
	switch filter.Outcome {
	case "", OutcomeForwarded, OutcomeMasked, OutcomeFailed:
	default:
		return nil, core.NewValidationError(nil, core.FieldError{Field: "outcome", Error: "unknown outcome"})
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultLimit
	case filter.Limit > MaxLimit:
		filter.Limit = MaxLimit
	}

	valid := make([]core.DBOrdering, 0, len(ordering))
	for _, ord := range ordering {
		if !orderingFields[ord.Field] {
			return nil, core.NewValidationError(nil, core.FieldError{Field: "ordering", Error: "cannot order by " + ord.Field})
		}
		valid = append(valid, ord)
	}
	if len(valid) == 0 {
		valid = defaultOrdering
	}

	entries, err := svc.repo.QueryEntries(ctx, filter, valid...)
	return entries, errors.Wrap(err, "querying audit entries")
}
