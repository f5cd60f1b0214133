package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vbonduro/glassinv/internal/domain"
)

const projectPlanColumns = `id, title, plan_type, coe, summary, price_min, price_max, is_archived, times_used, last_used_at, created_at, updated_at`

// ProjectPlanStore persists project plans together with their tags, glass
// items and reference URLs. Children are always written as a whole: an
// update deletes the previous collection and recreates it.
type ProjectPlanStore struct {
	db *sql.DB
}

func NewProjectPlanStore(db *sql.DB) *ProjectPlanStore {
	return &ProjectPlanStore{db: db}
}

func scanProjectPlan(sc rowScanner) (*domain.ProjectPlan, error) {
	p := &domain.ProjectPlan{}
	var priceMin, priceMax decimal.NullDecimal
	var lastUsed sql.NullTime
	if err := sc.Scan(&p.ID, &p.Title, &p.PlanType, &p.COE, &p.Summary, &priceMin, &priceMax,
		&p.IsArchived, &p.TimesUsed, &lastUsed, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.PriceMin = nullToDecimalPtr(priceMin)
	p.PriceMax = nullToDecimalPtr(priceMax)
	p.LastUsedAt = nullToTimePtr(lastUsed)
	return p, nil
}

func normalizePlan(p *domain.ProjectPlan) {
	p.Title = strings.TrimSpace(p.Title)
	if p.PlanType == "" {
		p.PlanType = domain.PlanTypeIdea
	}
	if p.COE == "" {
		p.COE = "any"
	}
	p.Tags = domain.NormalizeTags(p.Tags)
	p.GlassItems = cleanGlassItems(p.GlassItems)
	p.ReferenceURLs = cleanReferenceURLs(p.ReferenceURLs)
}

func writePlanChildren(ctx context.Context, q querier, p *domain.ProjectPlan) error {
	if err := replaceStrings(ctx, q, planChildren.tags, "tag", p.ID, p.Tags); err != nil {
		return err
	}
	if err := replaceGlassItems(ctx, q, planChildren.glassItems, p.ID, p.GlassItems); err != nil {
		return err
	}
	return replaceReferenceURLs(ctx, q, planChildren.referenceURLs, p.ID, p.ReferenceURLs)
}

func loadPlanChildren(ctx context.Context, q querier, p *domain.ProjectPlan) error {
	var err error
	if p.Tags, err = loadStrings(ctx, q, planChildren.tags, "tag", p.ID); err != nil {
		return err
	}
	if p.GlassItems, err = loadGlassItems(ctx, q, planChildren.glassItems, p.ID); err != nil {
		return err
	}
	p.ReferenceURLs, err = loadReferenceURLs(ctx, q, planChildren.referenceURLs, p.ID)
	return err
}

func (s *ProjectPlanStore) Create(ctx context.Context, p domain.ProjectPlan) (*domain.ProjectPlan, error) {
	normalizePlan(&p)
	if p.Title == "" {
		return nil, fmt.Errorf("project plan requires a title")
	}
	if p.ID == "" {
		p.ID = newID()
	}

	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		ts := now()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO project_plans (`+projectPlanColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, p.ID, p.Title, p.PlanType, p.COE, p.Summary, decimalPtrToNull(p.PriceMin), decimalPtrToNull(p.PriceMax),
			p.IsArchived, p.TimesUsed, timePtrToNull(p.LastUsedAt), ts, ts); err != nil {
			return fmt.Errorf("failed to create project plan: %w", err)
		}
		return writePlanChildren(ctx, tx, &p)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, p.ID)
}

func (s *ProjectPlanStore) GetByID(ctx context.Context, id string) (*domain.ProjectPlan, error) {
	p, err := scanProjectPlan(s.db.QueryRowContext(ctx, `
		SELECT `+projectPlanColumns+` FROM project_plans WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project plan: %w", err)
	}
	if err := loadPlanChildren(ctx, s.db, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProjectPlanStore) list(ctx context.Context, query string, args ...any) ([]*domain.ProjectPlan, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list project plans: %w", err)
	}

	var plans []*domain.ProjectPlan
	for rows.Next() {
		p, err := scanProjectPlan(rows)
		if err != nil {
			closeRows(rows)
			return nil, fmt.Errorf("failed to scan project plan: %w", err)
		}
		plans = append(plans, p)
	}
	err = rows.Err()
	closeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("error iterating project plans: %w", err)
	}

	for _, p := range plans {
		if err := loadPlanChildren(ctx, s.db, p); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

func (s *ProjectPlanStore) List(ctx context.Context) ([]*domain.ProjectPlan, error) {
	return s.list(ctx, `
		SELECT `+projectPlanColumns+` FROM project_plans ORDER BY updated_at DESC, title ASC
	`)
}

func (s *ProjectPlanStore) ListByType(ctx context.Context, planType string) ([]*domain.ProjectPlan, error) {
	return s.list(ctx, `
		SELECT `+projectPlanColumns+` FROM project_plans WHERE plan_type = ? ORDER BY title ASC
	`, planType)
}

func (s *ProjectPlanStore) ListByTag(ctx context.Context, tag string) ([]*domain.ProjectPlan, error) {
	return s.list(ctx, `
		SELECT `+projectPlanColumns+` FROM project_plans
		WHERE id IN (SELECT owner_id FROM project_plan_tags WHERE tag = ?)
		ORDER BY title ASC
	`, domain.NormalizeTag(tag))
}

func (s *ProjectPlanStore) ListArchived(ctx context.Context, archived bool) ([]*domain.ProjectPlan, error) {
	return s.list(ctx, `
		SELECT `+projectPlanColumns+` FROM project_plans WHERE is_archived = ? ORDER BY title ASC
	`, archived)
}

// Update overwrites the plan and fully replaces its children.
func (s *ProjectPlanStore) Update(ctx context.Context, p domain.ProjectPlan) error {
	normalizePlan(&p)
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE project_plans
			SET title = ?, plan_type = ?, coe = ?, summary = ?, price_min = ?, price_max = ?, is_archived = ?, updated_at = ?
			WHERE id = ?
		`, p.Title, p.PlanType, p.COE, p.Summary, decimalPtrToNull(p.PriceMin), decimalPtrToNull(p.PriceMax),
			p.IsArchived, now(), p.ID)
		if err != nil {
			return fmt.Errorf("failed to update project plan: %w", err)
		}
		if err := requireAffected(result, domain.ErrNotFound); err != nil {
			return err
		}
		return writePlanChildren(ctx, tx, &p)
	})
}

// RecordUse bumps the usage counter and stamps the time of use.
func (s *ProjectPlanStore) RecordUse(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE project_plans SET times_used = times_used + 1, last_used_at = ? WHERE id = ?
	`, now(), id)
	if err != nil {
		return fmt.Errorf("failed to record project plan use: %w", err)
	}
	return requireAffected(result, domain.ErrNotFound)
}

// Delete removes the plan; every child collection cascades.
func (s *ProjectPlanStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM project_plans WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project plan: %w", err)
	}
	return requireAffected(result, domain.ErrNotFound)
}

func (s *ProjectPlanStore) SetTags(ctx context.Context, id string, tags []string) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := requireParent(ctx, tx, "project_plans", id); err != nil {
			return err
		}
		return replaceStrings(ctx, tx, planChildren.tags, "tag", id, domain.NormalizeTags(tags))
	})
}

func (s *ProjectPlanStore) SetGlassItems(ctx context.Context, id string, items []domain.ProjectGlassItem) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := requireParent(ctx, tx, "project_plans", id); err != nil {
			return err
		}
		return replaceGlassItems(ctx, tx, planChildren.glassItems, id, cleanGlassItems(items))
	})
}

func (s *ProjectPlanStore) SetReferenceURLs(ctx context.Context, id string, urls []domain.ProjectReferenceURL) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := requireParent(ctx, tx, "project_plans", id); err != nil {
			return err
		}
		return replaceReferenceURLs(ctx, tx, planChildren.referenceURLs, id, cleanReferenceURLs(urls))
	})
}

// CountChildren reports how many rows a plan holds in one child collection.
func (s *ProjectPlanStore) CountChildren(ctx context.Context, id string, field ChildField) (int, error) {
	table, err := planChildren.table(field)
	if err != nil {
		return 0, err
	}
	return countChildren(ctx, s.db, table, id)
}

// LegacyRecords returns the serialized child columns of every plan that has
// at least one of them set.
func (s *ProjectPlanStore) LegacyRecords(ctx context.Context) ([]LegacyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, legacy_tags, legacy_glass_items, legacy_reference_urls FROM project_plans
		WHERE legacy_tags IS NOT NULL OR legacy_glass_items IS NOT NULL OR legacy_reference_urls IS NOT NULL
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list legacy project plans: %w", err)
	}
	defer closeRows(rows)

	var records []LegacyRecord
	for rows.Next() {
		var rec LegacyRecord
		if err := rows.Scan(&rec.ID, &rec.Tags, &rec.GlassItems, &rec.ReferenceURLs); err != nil {
			return nil, fmt.Errorf("failed to scan legacy project plan: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating legacy project plans: %w", err)
	}
	return records, nil
}
