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

const purchaseRecordColumns = `id, supplier, price, currency, date_purchased, notes, created_at, updated_at`

type PurchaseRecordStore struct {
	db *sql.DB
}

func NewPurchaseRecordStore(db *sql.DB) *PurchaseRecordStore {
	return &PurchaseRecordStore{db: db}
}

func scanPurchaseRecord(sc rowScanner) (*domain.PurchaseRecord, error) {
	rec := &domain.PurchaseRecord{}
	var purchased sql.NullTime
	if err := sc.Scan(&rec.ID, &rec.Supplier, &rec.Price, &rec.Currency, &purchased, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.DatePurchased = nullToTimePtr(purchased)
	return rec, nil
}

// list runs a record query and attaches each record's items.
func (s *PurchaseRecordStore) list(ctx context.Context, query string, args ...any) ([]*domain.PurchaseRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase records: %w", err)
	}

	var records []*domain.PurchaseRecord
	for rows.Next() {
		rec, err := scanPurchaseRecord(rows)
		if err != nil {
			closeRows(rows)
			return nil, fmt.Errorf("failed to scan purchase record: %w", err)
		}
		records = append(records, rec)
	}
	err = rows.Err()
	closeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("error iterating purchase records: %w", err)
	}

	for _, rec := range records {
		if rec.Items, err = loadPurchaseItems(ctx, s.db, rec.ID); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func replacePurchaseItems(ctx context.Context, q querier, recordID string, items []domain.PurchaseItem) error {
	if err := clearChildren(ctx, q, "purchase_record_items", recordID); err != nil {
		return err
	}
	ts := now()
	for i, item := range items {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO purchase_record_items (owner_id, item_natural_key, type, quantity, unit, price, order_index, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, recordID, strings.TrimSpace(item.ItemNaturalKey), strings.TrimSpace(item.Type), item.Quantity, item.Unit, item.Price, i, ts); err != nil {
			return fmt.Errorf("failed to insert purchase item: %w", err)
		}
	}
	return nil
}

func loadPurchaseItems(ctx context.Context, q querier, recordID string) ([]domain.PurchaseItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT item_natural_key, type, quantity, unit, price
		FROM purchase_record_items WHERE owner_id = ? ORDER BY order_index ASC
	`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase items: %w", err)
	}
	defer closeRows(rows)

	var items []domain.PurchaseItem
	for rows.Next() {
		var item domain.PurchaseItem
		if err := rows.Scan(&item.ItemNaturalKey, &item.Type, &item.Quantity, &item.Unit, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan purchase item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchase items: %w", err)
	}
	return items, nil
}

func (s *PurchaseRecordStore) Create(ctx context.Context, rec domain.PurchaseRecord) (*domain.PurchaseRecord, error) {
	rec.Supplier = strings.TrimSpace(rec.Supplier)
	if rec.Supplier == "" {
		return nil, fmt.Errorf("purchase record requires a supplier")
	}
	if rec.ID == "" {
		rec.ID = newID()
	}
	if rec.Currency == "" {
		rec.Currency = "USD"
	}

	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		ts := now()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO purchase_records (`+purchaseRecordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, rec.ID, rec.Supplier, rec.Price, rec.Currency, timePtrToNull(rec.DatePurchased), rec.Notes, ts, ts); err != nil {
			return fmt.Errorf("failed to create purchase record: %w", err)
		}
		return replacePurchaseItems(ctx, tx, rec.ID, rec.Items)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, rec.ID)
}

func (s *PurchaseRecordStore) GetByID(ctx context.Context, id string) (*domain.PurchaseRecord, error) {
	rec, err := scanPurchaseRecord(s.db.QueryRowContext(ctx, `
		SELECT `+purchaseRecordColumns+` FROM purchase_records WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase record: %w", err)
	}
	if rec.Items, err = loadPurchaseItems(ctx, s.db, rec.ID); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *PurchaseRecordStore) List(ctx context.Context) ([]*domain.PurchaseRecord, error) {
	return s.list(ctx, `
		SELECT `+purchaseRecordColumns+` FROM purchase_records ORDER BY date_purchased DESC, created_at DESC
	`)
}

func (s *PurchaseRecordStore) ListBySupplier(ctx context.Context, supplier string) ([]*domain.PurchaseRecord, error) {
	return s.list(ctx, `
		SELECT `+purchaseRecordColumns+` FROM purchase_records
		WHERE supplier = ? COLLATE NOCASE ORDER BY date_purchased DESC, created_at DESC
	`, strings.TrimSpace(supplier))
}

// ListInDateRange returns records purchased within [from, to]. Records
// without a purchase date never match.
func (s *PurchaseRecordStore) ListInDateRange(ctx context.Context, from, to time.Time) ([]*domain.PurchaseRecord, error) {
	return s.list(ctx, `
		SELECT `+purchaseRecordColumns+` FROM purchase_records
		WHERE date_purchased IS NOT NULL AND date_purchased >= ? AND date_purchased <= ?
		ORDER BY date_purchased ASC
	`, dbTime(from), dbTime(to))
}

// Update overwrites the record and fully replaces its items.
func (s *PurchaseRecordStore) Update(ctx context.Context, rec domain.PurchaseRecord) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE purchase_records SET supplier = ?, price = ?, currency = ?, date_purchased = ?, notes = ?, updated_at = ?
			WHERE id = ?
		`, strings.TrimSpace(rec.Supplier), rec.Price, rec.Currency, timePtrToNull(rec.DatePurchased), rec.Notes, now(), rec.ID)
		if err != nil {
			return fmt.Errorf("failed to update purchase record: %w", err)
		}
		if err := requireAffected(result, domain.ErrNotFound); err != nil {
			return err
		}
		return replacePurchaseItems(ctx, tx, rec.ID, rec.Items)
	})
}

// Delete removes the record; its items cascade.
func (s *PurchaseRecordStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM purchase_records WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete purchase record: %w", err)
	}
	return requireAffected(result, domain.ErrNotFound)
}

func (s *PurchaseRecordStore) DistinctSuppliers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT supplier FROM purchase_records ORDER BY supplier ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	return scanStrings(rows)
}

// TotalSpent sums the price of every record purchased within [from, to].
func (s *PurchaseRecordStore) TotalSpent(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT price FROM purchase_records
		WHERE date_purchased IS NOT NULL AND date_purchased >= ? AND date_purchased <= ?
	`, dbTime(from), dbTime(to))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum purchases: %w", err)
	}
	return sumDecimals(rows)
}

// sumDecimals adds up a single decimal column in Go so TEXT values keep their
// exact precision.
func sumDecimals(rows *sql.Rows) (decimal.Decimal, error) {
	defer closeRows(rows)
	total := decimal.Zero
	for rows.Next() {
		var d decimal.Decimal
		if err := rows.Scan(&d); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan amount: %w", err)
		}
		total = total.Add(d)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("error iterating amounts: %w", err)
	}
	return total, nil
}
