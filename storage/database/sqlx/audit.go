// Package sqlxrepos stores the audit trail in PostgreSQL.
package sqlxrepos

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/pathwise/core"
	"github.com/trezcool/pathwise/core/audit"
)

type auditRepository struct {
	db *sqlx.DB
}

var _ audit.Repository = (*auditRepository)(nil)

func NewAuditRepository(db *sqlx.DB) *auditRepository {
	return &auditRepository{db: db}
}

func (repo *auditRepository) CreateEntry(ctx context.Context, entry audit.Entry) error {
	const q = `INSERT INTO audit_entry (id, actor, action, target, outcome, status, created_at)
		VALUES (:id, :actor, :action, :target, :outcome, :status, :created_at)`
	_, err := repo.db.NamedExecContext(ctx, q, entry)
	return errors.Wrap(err, "inserting audit entry")
}

func (repo *auditRepository) QueryEntries(ctx context.Context, filter audit.Filter, ordering ...core.DBOrdering) ([]audit.Entry, error) {
	q, args := buildQuery(filter, ordering)
	entries := make([]audit.Entry, 0)
	if err := repo.db.SelectContext(ctx, &entries, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting audit entries")
	}
	return entries, nil
}

// buildQuery expects ordering fields to be already whitelisted.
func buildQuery(filter audit.Filter, ordering []core.DBOrdering) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Actor != "" {
		where = append(where, "LOWER(actor) = LOWER(?)")
		args = append(args, filter.Actor)
	}
	if filter.Action != "" {
		where = append(where, "action = ?")
		args = append(args, filter.Action)
	}
	if filter.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, filter.Outcome)
	}

	var b strings.Builder
	b.WriteString("SELECT id, actor, action, target, outcome, status, created_at FROM audit_entry")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	if len(ordering) > 0 {
		orders := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orders = append(orders, ord.String())
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(orders, ", "))
	}
	if filter.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(filter.Limit))
	}
	return b.String(), args
}
