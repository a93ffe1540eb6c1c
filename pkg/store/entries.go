package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/umputun/pagefeed/pkg/domain"
)

// entryRow is a stored entry
type entryRow struct {
	PK          int64         `db:"id"`
	EntryID     string        `db:"entry_id"`
	Seq         sql.NullInt64 `db:"seq"`
	Updated     time.Time     `db:"updated"`
	ContentType string        `db:"content_type"`
	Content     string        `db:"content"`
	Draft       bool          `db:"draft"`
	Edited      sql.NullTime  `db:"edited"`
}

// StoredEntry is an indexed entry with its offset
type StoredEntry struct {
	domain.Entry
	Seq int64
}

// Append inserts entries in one transaction, without offsets.
// Entries with empty ID get a random one, Updated defaults to now.
// Returns entries as stored.
func (s *Store) Append(ctx context.Context, entries ...domain.Entry) ([]domain.Entry, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	res := make([]domain.Entry, len(entries))
	now := time.Now().UTC()
	for i, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.Updated.IsZero() {
			e.Updated = now
		}
		e.Updated = e.Updated.UTC()
		res[i] = e
	}

	err := s.retry(ctx, func() error {
		err := s.inTransaction(ctx, func(tx *sqlx.Tx) error {
			for _, e := range res {
				query, args, err := s.builder.Insert(s.table).Rows(toRecord(e)).Prepared(true).ToSQL()
				if err != nil {
					return fmt.Errorf("build insert query: %w", err)
				}
				if _, err := tx.ExecContext(ctx, query, args...); err != nil {
					if isDuplicateError(err) {
						return fmt.Errorf("insert entry %s: %w", e.ID, ErrDuplicateID)
					}
					return fmt.Errorf("insert entry %s: %w", e.ID, err)
				}
			}
			return nil
		})
		if err != nil && !isLockError(err) {
			return &criticalError{err: err}
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("append entries: %w", err)
	}
	return res, nil
}

// Count returns the number of indexed entries
func (s *Store) Count(ctx context.Context) (int64, error) {
	query, args, err := s.builder.From(s.table).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C(colSeq).IsNotNull()).
		Prepared(true).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var count int64
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return count, nil
}

// Range returns up to limit indexed entries with offset >= from, ordered by offset
func (s *Store) Range(ctx context.Context, from int64, limit int) ([]StoredEntry, error) {
	if limit <= 0 {
		return []StoredEntry{}, nil
	}
	query, args, err := s.builder.From(s.table).
		Select(colPK, colEntryID, colSeq, colUpdated, colContentType, colContent, colDraft, colEdited).
		Where(goqu.C(colSeq).Gte(from)).
		Order(goqu.C(colSeq).Asc()).
		Limit(uint(limit)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build range query: %w", err)
	}

	var rows []entryRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("get entries from %d: %w", from, err)
	}

	res := make([]StoredEntry, 0, len(rows))
	for _, r := range rows {
		res = append(res, StoredEntry{Entry: r.toDomain(), Seq: r.Seq.Int64})
	}
	return res, nil
}

// Pending returns the number of stored entries still waiting for an offset
func (s *Store) Pending(ctx context.Context) (int64, error) {
	query, args, err := s.builder.From(s.table).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C(colSeq).IsNull()).
		Prepared(true).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build pending query: %w", err)
	}

	var count int64
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count pending entries: %w", err)
	}
	return count, nil
}

// Get returns a stored entry by its id, Seq is -1 if not indexed yet
func (s *Store) Get(ctx context.Context, id string) (StoredEntry, error) {
	query, args, err := s.builder.From(s.table).
		Select(colPK, colEntryID, colSeq, colUpdated, colContentType, colContent, colDraft, colEdited).
		Where(goqu.C(colEntryID).Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return StoredEntry{}, fmt.Errorf("build get query: %w", err)
	}

	var row entryRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StoredEntry{}, ErrNotFound
		}
		return StoredEntry{}, fmt.Errorf("get entry %s: %w", id, err)
	}
	res := StoredEntry{Entry: row.toDomain(), Seq: -1}
	if row.Seq.Valid {
		res.Seq = row.Seq.Int64
	}
	return res, nil
}

func toRecord(e domain.Entry) goqu.Record {
	rec := goqu.Record{
		colEntryID:     e.ID,
		colUpdated:     e.Updated,
		colContentType: e.Content.Type,
		colContent:     e.Content.Body,
		colDraft:       false,
		colEdited:      nil,
	}
	if e.Control != nil {
		rec[colDraft] = e.Control.Draft
		if !e.Control.Edited.IsZero() {
			rec[colEdited] = e.Control.Edited.UTC()
		}
	}
	return rec
}

func (r entryRow) toDomain() domain.Entry {
	e := domain.Entry{
		ID:      r.EntryID,
		Updated: r.Updated.UTC(),
		Content: domain.Content{Type: r.ContentType, Body: r.Content},
	}
	if r.Draft || r.Edited.Valid {
		e.Control = &domain.Control{Draft: r.Draft}
		if r.Edited.Valid {
			e.Control.Edited = r.Edited.Time.UTC()
		}
	}
	return e
}
