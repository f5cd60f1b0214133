package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vbonduro/glassinv/internal/domain"
)

const projectLogColumns = `id, title, based_on_plan_id, coe, notes, status, project_date, price_point, sale_date, buyer_info, hours_spent, created_at, updated_at`

type ProjectLogStore struct {
	db *sql.DB
}

func NewProjectLogStore(db *sql.DB) *ProjectLogStore {
	return &ProjectLogStore{db: db}
}

func scanProjectLog(sc rowScanner) (*domain.ProjectLog, error) {
	l := &domain.ProjectLog{}
	var basedOn sql.NullString
	var projectDate, saleDate sql.NullTime
	var pricePoint, hours decimal.NullDecimal
	if err := sc.Scan(&l.ID, &l.Title, &basedOn, &l.COE, &l.Notes, &l.Status, &projectDate, &pricePoint,
		&saleDate, &l.BuyerInfo, &hours, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.BasedOnPlanID = nullToStringPtr(basedOn)
	l.ProjectDate = nullToTimePtr(projectDate)
	l.PricePoint = nullToDecimalPtr(pricePoint)
	l.SaleDate = nullToTimePtr(saleDate)
	l.HoursSpent = nullToDecimalPtr(hours)
	return l, nil
}

func normalizeLog(l *domain.ProjectLog) {
	l.Title = strings.TrimSpace(l.Title)
	if l.Status == "" {
		l.Status = domain.LogStatusInProgress
	}
	if l.COE == "" {
		l.COE = "any"
	}
	l.Tags = domain.NormalizeTags(l.Tags)
	l.Techniques = domain.CleanStrings(l.Techniques)
	l.GlassItems = cleanGlassItems(l.GlassItems)
	l.ReferenceURLs = cleanReferenceURLs(l.ReferenceURLs)
}

func writeLogChildren(ctx context.Context, q querier, l *domain.ProjectLog) error {
	if err := replaceStrings(ctx, q, logChildren.tags, "tag", l.ID, l.Tags); err != nil {
		return err
	}
	if err := replaceStrings(ctx, q, logChildren.techniques, "technique", l.ID, l.Techniques); err != nil {
		return err
	}
	if err := replaceGlassItems(ctx, q, logChildren.glassItems, l.ID, l.GlassItems); err != nil {
		return err
	}
	return replaceReferenceURLs(ctx, q, logChildren.referenceURLs, l.ID, l.ReferenceURLs)
}

func loadLogChildren(ctx context.Context, q querier, l *domain.ProjectLog) error {
	var err error
	if l.Tags, err = loadStrings(ctx, q, logChildren.tags, "tag", l.ID); err != nil {
		return err
	}
	if l.Techniques, err = loadStrings(ctx, q, logChildren.techniques, "technique", l.ID); err != nil {
		return err
	}
	if l.GlassItems, err = loadGlassItems(ctx, q, logChildren.glassItems, l.ID); err != nil {
		return err
	}
	l.ReferenceURLs, err = loadReferenceURLs(ctx, q, logChildren.referenceURLs, l.ID)
	return err
}

func (s *ProjectLogStore) Create(ctx context.Context, l domain.ProjectLog) (*domain.ProjectLog, error) {
	normalizeLog(&l)
	if l.Title == "" {
		return nil, fmt.Errorf("project log requires a title")
	}
	if l.ID == "" {
		l.ID = newID()
	}

	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		ts := now()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO project_logs (`+projectLogColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, l.ID, l.Title, stringPtrToNull(l.BasedOnPlanID), l.COE, l.Notes, l.Status, timePtrToNull(l.ProjectDate),
			decimalPtrToNull(l.PricePoint), timePtrToNull(l.SaleDate), l.BuyerInfo, decimalPtrToNull(l.HoursSpent), ts, ts); err != nil {
			return fmt.Errorf("failed to create project log: %w", err)
		}
		return writeLogChildren(ctx, tx, &l)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, l.ID)
}

func (s *ProjectLogStore) GetByID(ctx context.Context, id string) (*domain.ProjectLog, error) {
	l, err := scanProjectLog(s.db.QueryRowContext(ctx, `
		SELECT `+projectLogColumns+` FROM project_logs WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project log: %w", err)
	}
	if err := loadLogChildren(ctx, s.db, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *ProjectLogStore) list(ctx context.Context, query string, args ...any) ([]*domain.ProjectLog, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list project logs: %w", err)
	}

	var logs []*domain.ProjectLog
	for rows.Next() {
		l, err := scanProjectLog(rows)
		if err != nil {
			closeRows(rows)
			return nil, fmt.Errorf("failed to scan project log: %w", err)
		}
		logs = append(logs, l)
	}
	err = rows.Err()
	closeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("error iterating project logs: %w", err)
	}

	for _, l := range logs {
		if err := loadLogChildren(ctx, s.db, l); err != nil {
			return nil, err
		}
	}
	return logs, nil
}

func (s *ProjectLogStore) List(ctx context.Context) ([]*domain.ProjectLog, error) {
	return s.list(ctx, `
		SELECT `+projectLogColumns+` FROM project_logs ORDER BY project_date DESC, created_at DESC
	`)
}

func (s *ProjectLogStore) ListByStatus(ctx context.Context, status string) ([]*domain.ProjectLog, error) {
	return s.list(ctx, `
		SELECT `+projectLogColumns+` FROM project_logs WHERE status = ? ORDER BY project_date DESC, created_at DESC
	`, status)
}

func (s *ProjectLogStore) ListByTag(ctx context.Context, tag string) ([]*domain.ProjectLog, error) {
	return s.list(ctx, `
		SELECT `+projectLogColumns+` FROM project_logs
		WHERE id IN (SELECT owner_id FROM project_log_tags WHERE tag = ?)
		ORDER BY project_date DESC, created_at DESC
	`, domain.NormalizeTag(tag))
}

// ListInDateRange returns logs whose project date falls within [from, to].
// Logs without a project date never match.
func (s *ProjectLogStore) ListInDateRange(ctx context.Context, from, to time.Time) ([]*domain.ProjectLog, error) {
	return s.list(ctx, `
		SELECT `+projectLogColumns+` FROM project_logs
		WHERE project_date IS NOT NULL AND project_date >= ? AND project_date <= ?
		ORDER BY project_date ASC
	`, dbTime(from), dbTime(to))
}

func (s *ProjectLogStore) ListForPlan(ctx context.Context, planID string) ([]*domain.ProjectLog, error) {
	return s.list(ctx, `
		SELECT `+projectLogColumns+` FROM project_logs WHERE based_on_plan_id = ? ORDER BY project_date DESC, created_at DESC
	`, planID)
}

// TotalRevenue sums the price point of every sold log.
func (s *ProjectLogStore) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT price_point FROM project_logs WHERE status = ? AND price_point IS NOT NULL
	`, domain.LogStatusSold)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return sumDecimals(rows)
}

// Update overwrites the log and fully replaces its children.
func (s *ProjectLogStore) Update(ctx context.Context, l domain.ProjectLog) error {
	normalizeLog(&l)
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE project_logs
			SET title = ?, based_on_plan_id = ?, coe = ?, notes = ?, status = ?, project_date = ?, price_point = ?,
			    sale_date = ?, buyer_info = ?, hours_spent = ?, updated_at = ?
			WHERE id = ?
		`, l.Title, stringPtrToNull(l.BasedOnPlanID), l.COE, l.Notes, l.Status, timePtrToNull(l.ProjectDate),
			decimalPtrToNull(l.PricePoint), timePtrToNull(l.SaleDate), l.BuyerInfo, decimalPtrToNull(l.HoursSpent), now(), l.ID)
		if err != nil {
			return fmt.Errorf("failed to update project log: %w", err)
		}
		if err := requireAffected(result, domain.ErrNotFound); err != nil {
			return err
		}
		return writeLogChildren(ctx, tx, &l)
	})
}

// Delete removes the log; every child collection cascades.
func (s *ProjectLogStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM project_logs WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project log: %w", err)
	}
	return requireAffected(result, domain.ErrNotFound)
}

func (s *ProjectLogStore) SetTags(ctx context.Context, id string, tags []string) error {
	return s.replaceChildren(ctx, id, func(tx *sql.Tx) error {
		return replaceStrings(ctx, tx, logChildren.tags, "tag", id, domain.NormalizeTags(tags))
	})
}

func (s *ProjectLogStore) SetTechniques(ctx context.Context, id string, techniques []string) error {
	return s.replaceChildren(ctx, id, func(tx *sql.Tx) error {
		return replaceStrings(ctx, tx, logChildren.techniques, "technique", id, domain.CleanStrings(techniques))
	})
}

func (s *ProjectLogStore) SetGlassItems(ctx context.Context, id string, items []domain.ProjectGlassItem) error {
	return s.replaceChildren(ctx, id, func(tx *sql.Tx) error {
		return replaceGlassItems(ctx, tx, logChildren.glassItems, id, cleanGlassItems(items))
	})
}

func (s *ProjectLogStore) SetReferenceURLs(ctx context.Context, id string, urls []domain.ProjectReferenceURL) error {
	return s.replaceChildren(ctx, id, func(tx *sql.Tx) error {
		return replaceReferenceURLs(ctx, tx, logChildren.referenceURLs, id, cleanReferenceURLs(urls))
	})
}

func (s *ProjectLogStore) replaceChildren(ctx context.Context, id string, fn func(tx *sql.Tx) error) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := requireParent(ctx, tx, "project_logs", id); err != nil {
			return err
		}
		return fn(tx)
	})
}

func (s *ProjectLogStore) CountChildren(ctx context.Context, id string, field ChildField) (int, error) {
	table, err := logChildren.table(field)
	if err != nil {
		return 0, err
	}
	return countChildren(ctx, s.db, table, id)
}

// LegacyRecords returns the serialized child columns of every log that has
// at least one of them set.
func (s *ProjectLogStore) LegacyRecords(ctx context.Context) ([]LegacyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, legacy_tags, legacy_techniques, legacy_glass_items, legacy_reference_urls FROM project_logs
		WHERE legacy_tags IS NOT NULL OR legacy_techniques IS NOT NULL
		   OR legacy_glass_items IS NOT NULL OR legacy_reference_urls IS NOT NULL
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list legacy project logs: %w", err)
	}
	defer closeRows(rows)

	var records []LegacyRecord
	for rows.Next() {
		var rec LegacyRecord
		if err := rows.Scan(&rec.ID, &rec.Tags, &rec.Techniques, &rec.GlassItems, &rec.ReferenceURLs); err != nil {
			return nil, fmt.Errorf("failed to scan legacy project log: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating legacy project logs: %w", err)
	}
	return records, nil
}
