package visibility

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// EngineerQuery is the composed predicate the resolver executes against
// the engineer catalog. All conditions are conjunctive. IncludeIDs nil
// means no allow-list restriction; non-nil empty means nothing matches.
type EngineerQuery struct {
	TenantID       int64
	ExcludeIDs     []int64
	IncludeIDs     []int64
	Availabilities []Availability
	Overlay        []Availability
	Search         string
	Skills         []string
	Limit          int
	Offset         int
}

// EngineerCatalog is the read-only query surface over engineers.
type EngineerCatalog interface {
	Query(ctx context.Context, q EngineerQuery) ([]Engineer, int, error)
}

// SQLEngineerCatalog implements EngineerCatalog over the engineers table.
type SQLEngineerCatalog struct {
	db *sql.DB
}

// NewEngineerCatalog creates a catalog over db.
func NewEngineerCatalog(db *sql.DB) *SQLEngineerCatalog {
	return &SQLEngineerCatalog{db: db}
}

// Query executes the composed predicate with pagination, returning the
// page of engineers (newest first) and the total matching count.
func (c *SQLEngineerCatalog) Query(ctx context.Context, q EngineerQuery) ([]Engineer, int, error) {
	if q.IncludeIDs != nil && len(q.IncludeIDs) == 0 {
		return nil, 0, nil
	}

	where, args := buildEngineerWhere(q)

	var total int
	countQuery := "SELECT COUNT(*) FROM engineers " + where
	if err := c.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count engineers: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT id, tenant_id, name, name_kana, email, availability, skills, is_active, is_public, created_at
		FROM engineers
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset)

	rows, err := c.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query engineers: %w", err)
	}
	defer rows.Close()

	var engineers []Engineer
	for rows.Next() {
		var e Engineer
		var nameKana, email sql.NullString
		var skills pq.StringArray
		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.Name, &nameKana, &email,
			&e.Availability, &skills, &e.IsActive, &e.IsPublic, &e.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan engineer: %w", err)
		}
		if nameKana.Valid {
			e.NameKana = nameKana.String
		}
		if email.Valid {
			e.Email = email.String
		}
		e.Skills = []string(skills)
		engineers = append(engineers, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return engineers, total, nil
}

func buildEngineerWhere(q EngineerQuery) (string, []interface{}) {
	conditions := []string{
		"tenant_id = $1",
		"is_active = TRUE",
		"is_public = TRUE",
	}
	args := []interface{}{q.TenantID}

	next := func() int { return len(args) + 1 }

	if len(q.ExcludeIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("NOT (id = ANY($%d))", next()))
		args = append(args, pq.Array(q.ExcludeIDs))
	}
	if q.IncludeIDs != nil {
		conditions = append(conditions, fmt.Sprintf("id = ANY($%d)", next()))
		args = append(args, pq.Array(q.IncludeIDs))
	}
	if len(q.Availabilities) > 0 {
		conditions = append(conditions, fmt.Sprintf("availability = ANY($%d)", next()))
		args = append(args, pq.Array(availabilityStrings(q.Availabilities)))
	}
	if len(q.Overlay) > 0 {
		conditions = append(conditions, fmt.Sprintf("availability = ANY($%d)", next()))
		args = append(args, pq.Array(availabilityStrings(q.Overlay)))
	}
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		n := next()
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR name_kana ILIKE $%d OR email ILIKE $%d)", n, n, n))
		args = append(args, pattern)
	}
	if len(q.Skills) > 0 {
		conditions = append(conditions, fmt.Sprintf("skills @> $%d", next()))
		args = append(args, pq.Array(q.Skills))
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

func availabilityStrings(values []Availability) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
