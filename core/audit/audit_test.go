package audit_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/pathwise/core"
	"github.com/trezcool/pathwise/core/audit"
	inmemdb "github.com/trezcool/pathwise/storage/database/inmem"
)

type failingRepo struct {
	audit.Repository
}

func (failingRepo) CreateEntry(context.Context, audit.Entry) error {
	return errors.New("db down")
}

func TestService_Record(t *testing.T) {
	svc := audit.NewService(inmemdb.NewAuditRepository())
	ctx := context.Background()

	tests := []struct {
		name        string
		status      int
		masked      bool
		wantOutcome string
	}{
		{name: "forwarded", status: http.StatusOK, wantOutcome: audit.OutcomeForwarded},
		{name: "refused", status: http.StatusForbidden, wantOutcome: audit.OutcomeFailed},
		{name: "masked", status: http.StatusForbidden, masked: true, wantOutcome: audit.OutcomeMasked},
		{name: "unreachable", status: 0, wantOutcome: audit.OutcomeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := time.Now().UTC()
			entry, err := svc.Record(ctx, "admin", "achievement.delete", "7", tt.status, tt.masked)
			if err != nil {
				t.Fatalf("Record() error = %v", err)
			}
			assert.Equal(t, tt.wantOutcome, entry.Outcome)
			assert.Len(t, entry.ID, 36)
			assert.Equal(t, time.UTC, entry.CreatedAt.Location())
			assert.False(t, entry.CreatedAt.Before(before.Add(-time.Second)))
		})
	}

	t.Run("repository failure", func(t *testing.T) {
		_, err := audit.NewService(failingRepo{}).Record(ctx, "admin", "comment.delete", "1", 200, false)
		assert.EqualError(t, err, "recording audit entry: db down")
	})
}

func TestService_Query(t *testing.T) {
	svc := audit.NewService(inmemdb.NewAuditRepository())
	ctx := context.Background()
	for i, actor := range []string{"admin", "Root.Admin", "admin"} {
		status := http.StatusOK
		if i == 1 {
			status = http.StatusForbidden
		}
		if _, err := svc.Record(ctx, actor, "achievement.delete", "1", status, false); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	tests := []struct {
		name     string
		filter   audit.Filter
		ordering []core.DBOrdering
		wantLen  int
		wantErr  bool
	}{
		{name: "all", wantLen: 3},
		{name: "by actor, case insensitive", filter: audit.Filter{Actor: " ADMIN "}, wantLen: 2},
		{name: "by outcome", filter: audit.Filter{Outcome: "FAILED"}, wantLen: 1},
		{name: "by action", filter: audit.Filter{Action: "comment.delete"}, wantLen: 0},
		{name: "limit", filter: audit.Filter{Limit: 1}, wantLen: 1},
		{name: "ordered by status", ordering: []core.DBOrdering{{Field: "status"}}, wantLen: 3},
		{name: "unknown outcome", filter: audit.Filter{Outcome: "lost"}, wantErr: true},
		{name: "unknown ordering", ordering: []core.DBOrdering{{Field: "id"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := svc.Query(ctx, tt.filter, tt.ordering...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Query() error = %v, wantErr %v", err, tt.wantErr)
			}
			assert.Len(t, entries, tt.wantLen)
		})
	}

	entries, _ := svc.Query(ctx, audit.Filter{}, core.DBOrdering{Field: "status", Ascending: false})
	assert.Equal(t, http.StatusForbidden, entries[0].Status)
}
