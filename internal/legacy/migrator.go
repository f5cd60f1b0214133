// Package legacy converts the serialized array columns written by older
// clients into first-class child rows.
//
// Migration is run once per versioned step; completed steps are recorded as
// flags in the settings table. The legacy columns are only ever read.
package legacy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vbonduro/glassinv/internal/domain"
	"github.com/vbonduro/glassinv/internal/store"
)

const CompleteKey = "legacy.migration_complete"

// Target is a parent table whose legacy columns can be migrated.
type Target interface {
	LegacyRecords(ctx context.Context) ([]store.LegacyRecord, error)
	CountChildren(ctx context.Context, id string, field store.ChildField) (int, error)
	SetTags(ctx context.Context, id string, tags []string) error
	SetGlassItems(ctx context.Context, id string, items []domain.ProjectGlassItem) error
	SetReferenceURLs(ctx context.Context, id string, urls []domain.ProjectReferenceURL) error
}

// TechniqueTarget is a Target that also carries techniques.
type TechniqueTarget interface {
	Target
	SetTechniques(ctx context.Context, id string, techniques []string) error
}

// Flags persists completed steps.
type Flags interface {
	Bool(ctx context.Context, key string) (bool, error)
	SetBool(ctx context.Context, key string, value bool) error
}

type step struct {
	key   string
	field store.ChildField
}

var steps = []step{
	{key: "legacy.tags.v1", field: store.FieldTags},
	{key: "legacy.techniques.v1", field: store.FieldTechniques},
	{key: "legacy.glass_items.v1", field: store.FieldGlassItems},
	{key: "legacy.reference_urls.v1", field: store.FieldReferenceURLs},
}

// Report summarizes one Run.
type Report struct {
	AlreadyComplete bool
	StepsRun        []string
	RecordsMigrated int
	ChildrenCreated int
	CorruptSkipped  int
}

func (r *Report) add(res Result) {
	if res.Created > 0 {
		r.RecordsMigrated++
	}
	r.ChildrenCreated += res.Created
	if res.Corrupt {
		r.CorruptSkipped++
	}
}

// Result is the outcome of migrating one field of one record.
type Result struct {
	Created int
	Skipped bool // children already present
	Corrupt bool // blob could not be decoded; treated as empty
}

type Migrator struct {
	plans    Target
	logs     TechniqueTarget
	settings Flags
	logger   *slog.Logger
}

func NewMigrator(plans Target, logs TechniqueTarget, settings Flags, logger *slog.Logger) *Migrator {
	return &Migrator{plans: plans, logs: logs, settings: settings, logger: logger}
}

// Run migrates every step that has not completed yet across plans and logs.
// Once all steps are done the completion flag short-circuits later runs.
func (m *Migrator) Run(ctx context.Context) (Report, error) {
	var report Report

	done, err := m.settings.Bool(ctx, CompleteKey)
	if err != nil {
		return report, err
	}
	if done {
		report.AlreadyComplete = true
		return report, nil
	}

	for _, st := range steps {
		stepDone, err := m.settings.Bool(ctx, st.key)
		if err != nil {
			return report, err
		}
		if stepDone {
			continue
		}

		for _, target := range m.targets(st.field) {
			records, err := target.LegacyRecords(ctx)
			if err != nil {
				return report, err
			}
			for _, rec := range records {
				res, err := m.migrateField(ctx, target, rec, st.field)
				if err != nil {
					return report, err
				}
				report.add(res)
			}
		}

		if err := m.settings.SetBool(ctx, st.key, true); err != nil {
			return report, err
		}
		report.StepsRun = append(report.StepsRun, st.key)
		m.logger.Info("legacy migration step complete", "step", st.key)
	}

	if err := m.settings.SetBool(ctx, CompleteKey, true); err != nil {
		return report, err
	}
	m.logger.Info("legacy migration complete",
		"records", report.RecordsMigrated,
		"children", report.ChildrenCreated,
		"corrupt", report.CorruptSkipped,
	)
	return report, nil
}

func (m *Migrator) targets(field store.ChildField) []Target {
	if field == store.FieldTechniques {
		return []Target{m.logs}
	}
	return []Target{m.plans, m.logs}
}

func (m *Migrator) MigrateTags(ctx context.Context, target Target, rec store.LegacyRecord) (Result, error) {
	return m.migrateField(ctx, target, rec, store.FieldTags)
}

func (m *Migrator) MigrateTechniques(ctx context.Context, target TechniqueTarget, rec store.LegacyRecord) (Result, error) {
	return m.migrateField(ctx, target, rec, store.FieldTechniques)
}

func (m *Migrator) MigrateGlassItems(ctx context.Context, target Target, rec store.LegacyRecord) (Result, error) {
	return m.migrateField(ctx, target, rec, store.FieldGlassItems)
}

func (m *Migrator) MigrateReferenceURLs(ctx context.Context, target Target, rec store.LegacyRecord) (Result, error) {
	return m.migrateField(ctx, target, rec, store.FieldReferenceURLs)
}

// migrateField writes child rows for one field of rec unless the record
// already has children for it.
func (m *Migrator) migrateField(ctx context.Context, target Target, rec store.LegacyRecord, field store.ChildField) (Result, error) {
	var res Result

	blob := legacyBlob(rec, field)
	if blob == nil {
		return res, nil
	}

	existing, err := target.CountChildren(ctx, rec.ID, field)
	if err != nil {
		return res, err
	}
	if existing > 0 {
		res.Skipped = true
		return res, nil
	}

	warn := func(err error) {
		m.logger.Warn("skipping undecodable legacy field", "record", rec.ID, "field", string(field), "error", err)
		res.Corrupt = true
	}

	switch field {
	case store.FieldTags:
		values, err := decodeStrings(blob)
		if err != nil {
			warn(err)
			return res, nil
		}
		tags := domain.NormalizeTags(values)
		if len(tags) == 0 {
			return res, nil
		}
		if err := target.SetTags(ctx, rec.ID, tags); err != nil {
			return res, err
		}
		res.Created = len(tags)

	case store.FieldTechniques:
		tt, ok := target.(TechniqueTarget)
		if !ok {
			return res, fmt.Errorf("target does not carry techniques")
		}
		values, err := decodeStrings(blob)
		if err != nil {
			warn(err)
			return res, nil
		}
		techniques := domain.CleanStrings(values)
		if len(techniques) == 0 {
			return res, nil
		}
		if err := tt.SetTechniques(ctx, rec.ID, techniques); err != nil {
			return res, err
		}
		res.Created = len(techniques)

	case store.FieldGlassItems:
		items, err := decodeGlassItems(blob)
		if err != nil {
			warn(err)
			return res, nil
		}
		if len(items) == 0 {
			return res, nil
		}
		if err := target.SetGlassItems(ctx, rec.ID, items); err != nil {
			return res, err
		}
		res.Created = len(items)

	case store.FieldReferenceURLs:
		urls, err := decodeReferenceURLs(blob)
		if err != nil {
			warn(err)
			return res, nil
		}
		if len(urls) == 0 {
			return res, nil
		}
		if err := target.SetReferenceURLs(ctx, rec.ID, urls); err != nil {
			return res, err
		}
		res.Created = len(urls)

	default:
		return res, fmt.Errorf("unsupported legacy field %q", field)
	}

	return res, nil
}

func legacyBlob(rec store.LegacyRecord, field store.ChildField) []byte {
	switch field {
	case store.FieldTags:
		return rec.Tags
	case store.FieldTechniques:
		return rec.Techniques
	case store.FieldGlassItems:
		return rec.GlassItems
	case store.FieldReferenceURLs:
		return rec.ReferenceURLs
	}
	return nil
}
