package visibility

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/sesflow/accesscore/pkg/errdefs"
)

// SettingsStore reads and writes the per-partner view-mode record.
type SettingsStore interface {
	// GetSetting returns the partner's setting, or nil when none has
	// been configured yet.
	GetSetting(ctx context.Context, partnerID int64) (*VisibilitySetting, error)
}

// NgSource reads the per-partner block list.
type NgSource interface {
	NgEngineerIDs(ctx context.Context, partnerID int64) (map[int64]struct{}, error)
}

// AllowSource reads the per-partner allow list.
type AllowSource interface {
	AllowedEngineerIDs(ctx context.Context, partnerID int64) ([]int64, error)
}

// Store persists visibility settings, allow lists, and NG lists. All
// multi-row mutations run inside a single transaction so cancellation
// mid-operation cannot leave a partial allow list behind.
type Store struct {
	db *sql.DB
}

// NewStore creates a new visibility store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetSetting returns the partner's visibility setting, or nil when the
// partner has never been configured.
func (s *Store) GetSetting(ctx context.Context, partnerID int64) (*VisibilitySetting, error) {
	setting := &VisibilitySetting{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, business_partner_id, view_type, show_waiting_only, created_at, updated_at
		FROM visibility_settings
		WHERE business_partner_id = $1
	`, partnerID).Scan(
		&setting.ID, &setting.PartnerID, &setting.ViewType,
		&setting.ShowWaitingOnly, &setting.CreatedAt, &setting.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get visibility setting: %w", err)
	}
	return setting, nil
}

// ReplaceAllowList sets the partner's view type and replaces its entire
// allow list in one transaction: the setting is upserted (at most one
// row per partner), every existing allow row is deleted, and the new set
// is inserted. When the view type is not custom the allow list ends up
// empty. Engineers outside the tenant are a validation error checked
// before any write.
func (s *Store) ReplaceAllowList(ctx context.Context, tenantID, partnerID int64, viewType ViewType, engineerIDs []int64) error {
	if !ValidViewType(viewType) {
		return errdefs.Validationf("view_type", "unknown view type %q", viewType)
	}
	if viewType != ViewTypeCustom && len(engineerIDs) > 0 {
		return errdefs.Validation("engineer_ids", "engineer list is only meaningful for the custom view type")
	}

	engineerIDs = dedupeIDs(engineerIDs)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if len(engineerIDs) > 0 {
		if err := verifyEngineersInTenant(ctx, tx, tenantID, engineerIDs); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO visibility_settings (business_partner_id, view_type, show_waiting_only)
		VALUES ($1, $2, $3)
		ON CONFLICT (business_partner_id)
		DO UPDATE SET view_type = EXCLUDED.view_type,
		              show_waiting_only = EXCLUDED.show_waiting_only,
		              updated_at = NOW()
	`, partnerID, string(viewType), viewType == ViewTypeWaiting)
	if err != nil {
		return fmt.Errorf("failed to upsert visibility setting: %w", err)
	}

	// Full replace, never a diff.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM engineer_permissions WHERE business_partner_id = $1
	`, partnerID)
	if err != nil {
		return fmt.Errorf("failed to clear allow list: %w", err)
	}

	for _, engineerID := range engineerIDs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO engineer_permissions (business_partner_id, engineer_id, is_allowed)
			VALUES ($1, $2, TRUE)
		`, partnerID, engineerID)
		if err != nil {
			return fmt.Errorf("failed to insert allow entry for engineer %d: %w", engineerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit allow list: %w", err)
	}
	return nil
}

// ListAllow returns the partner's allow-list entries.
func (s *Store) ListAllow(ctx context.Context, partnerID int64) ([]EngineerPermission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, business_partner_id, engineer_id, is_allowed, created_at
		FROM engineer_permissions
		WHERE business_partner_id = $1
		ORDER BY engineer_id ASC
	`, partnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list allow entries: %w", err)
	}
	defer rows.Close()

	var entries []EngineerPermission
	for rows.Next() {
		var e EngineerPermission
		if err := rows.Scan(&e.ID, &e.PartnerID, &e.EngineerID, &e.IsAllowed, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan allow entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AllowedEngineerIDs returns the engineer IDs the partner's custom mode
// includes.
func (s *Store) AllowedEngineerIDs(ctx context.Context, partnerID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT engineer_id
		FROM engineer_permissions
		WHERE business_partner_id = $1 AND is_allowed = TRUE
		ORDER BY engineer_id ASC
	`, partnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load allow list: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan allow entry: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddToNgList blocks an engineer for a partner. Blocking an engineer
// outside the tenant, or one already blocked, is a validation error. Any
// allow-list row for the pair is removed in the same transaction so the
// two lists never simultaneously claim an engineer.
func (s *Store) AddToNgList(ctx context.Context, tenantID, partnerID, engineerID int64, reason *string) (*NgListEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := verifyEngineersInTenant(ctx, tx, tenantID, []int64{engineerID}); err != nil {
		return nil, err
	}

	entry := &NgListEntry{PartnerID: partnerID, EngineerID: engineerID, Reason: reason}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO ng_list_entries (business_partner_id, engineer_id, reason)
		VALUES ($1, $2, $3)
		ON CONFLICT (business_partner_id, engineer_id) DO NOTHING
		RETURNING id, created_at
	`, partnerID, engineerID, reason).Scan(&entry.ID, &entry.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errdefs.Validationf("engineer_id", "engineer %d is already on the NG list", engineerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add NG entry: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM engineer_permissions
		WHERE business_partner_id = $1 AND engineer_id = $2
	`, partnerID, engineerID)
	if err != nil {
		return nil, fmt.Errorf("failed to clear allow entry for NG'd engineer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit NG entry: %w", err)
	}
	return entry, nil
}

// RemoveFromNgList unblocks an engineer. Removing an entry that does not
// exist is a validation error, not a silent no-op.
func (s *Store) RemoveFromNgList(ctx context.Context, partnerID, engineerID int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM ng_list_entries
		WHERE business_partner_id = $1 AND engineer_id = $2
	`, partnerID, engineerID)
	if err != nil {
		return fmt.Errorf("failed to remove NG entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to remove NG entry: %w", err)
	}
	if affected == 0 {
		return errdefs.Validationf("engineer_id", "engineer %d is not on the NG list", engineerID)
	}
	return nil
}

// ListNg returns the partner's NG entries, newest first.
func (s *Store) ListNg(ctx context.Context, partnerID int64) ([]NgListEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, business_partner_id, engineer_id, reason, created_at
		FROM ng_list_entries
		WHERE business_partner_id = $1
		ORDER BY created_at DESC
	`, partnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list NG entries: %w", err)
	}
	defer rows.Close()

	var entries []NgListEntry
	for rows.Next() {
		var e NgListEntry
		var reason sql.NullString
		if err := rows.Scan(&e.ID, &e.PartnerID, &e.EngineerID, &reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan NG entry: %w", err)
		}
		if reason.Valid {
			r := reason.String
			e.Reason = &r
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// NgEngineerIDs returns the partner's blocked engineer IDs as a set.
func (s *Store) NgEngineerIDs(ctx context.Context, partnerID int64) (map[int64]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT engineer_id FROM ng_list_entries WHERE business_partner_id = $1
	`, partnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load NG list: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan NG entry: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// verifyEngineersInTenant fails with a validation error when any of the
// IDs does not reference a live engineer owned by the tenant.
func verifyEngineersInTenant(ctx context.Context, tx *sql.Tx, tenantID int64, engineerIDs []int64) error {
	var count int
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM engineers
		WHERE tenant_id = $1 AND id = ANY($2)
	`, tenantID, pq.Array(engineerIDs)).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to verify engineer tenancy: %w", err)
	}
	if count != len(engineerIDs) {
		return errdefs.Validation("engineer_ids", "one or more engineers do not belong to the tenant")
	}
	return nil
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
