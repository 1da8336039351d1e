// Package inmemdb keeps the audit trail in process memory.
package inmemdb

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/trezcool/pathwise/core"
	"github.com/trezcool/pathwise/core/audit"
)

type auditRepository struct {
	mutex   sync.RWMutex
	entries []audit.Entry
}

var _ audit.Repository = (*auditRepository)(nil)

func NewAuditRepository() *auditRepository {
	return &auditRepository{}
}

func (repo *auditRepository) CreateEntry(_ context.Context, entry audit.Entry) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	repo.entries = append(repo.entries, entry)
	return nil
}

func (repo *auditRepository) QueryEntries(ctx context.Context, filter audit.Filter, ordering ...core.DBOrdering) ([]audit.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	entries := make([]audit.Entry, 0, len(repo.entries))
	for _, e := range repo.entries {
		if filter.Actor != "" && !strings.EqualFold(e.Actor, filter.Actor) {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.Outcome != "" && e.Outcome != filter.Outcome {
			continue
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		for _, ord := range ordering {
			c := compare(entries[i], entries[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})

	if filter.Limit > 0 && len(entries) > filter.Limit {
		entries = entries[:filter.Limit]
	}
	return entries, nil
}

func compare(a, b audit.Entry, field string) int {
	switch field {
	case "created_at":
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		}
		return 0
	case "actor":
		return strings.Compare(a.Actor, b.Actor)
	case "action":
		return strings.Compare(a.Action, b.Action)
	case "status":
		return a.Status - b.Status
	}
	return 0
}
