package store

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/go-pkgz/lgr"
	"github.com/jmoiron/sqlx"
)

// Index assigns consecutive offsets to all stored entries without one.
// In a single transaction it reads the current maximum offset (-1 for none),
// selects unindexed rows in insertion order and numbers them from max+1.
// Readers never observe a partial assignment. Calls are serialized per store,
// writers are never blocked by the indexer beyond the database's own locking.
// Returns the number of entries indexed by this call.
func (s *Store) Index(ctx context.Context) (int, error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	var indexed int
	err := s.retry(ctx, func() error {
		n, err := s.indexOnce(ctx)
		if err != nil {
			if isLockError(err) {
				return err
			}
			return &criticalError{err: err}
		}
		indexed = n
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("index entries: %w", err)
	}
	if indexed > 0 {
		lgr.Printf("[DEBUG] indexed %d entries", indexed)
	}
	return indexed, nil
}

func (s *Store) indexOnce(ctx context.Context) (int, error) {
	maxQuery, maxArgs, err := s.builder.From(s.table).
		Select(goqu.COALESCE(goqu.MAX(colSeq), -1)).
		Prepared(true).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build max offset query: %w", err)
	}

	pendingQuery, pendingArgs, err := s.builder.From(s.table).
		Select(colPK).
		Where(goqu.C(colSeq).IsNull()).
		Order(goqu.C(colPK).Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build unindexed query: %w", err)
	}

	// placeholder values, the statement is prepared once and executed per row
	updateQuery, _, err := s.builder.Update(s.table).
		Set(goqu.Record{colSeq: int64(0)}).
		Where(goqu.C(colPK).Eq(int64(0))).
		Prepared(true).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build offset update query: %w", err)
	}

	var indexed int
	err = s.inTransaction(ctx, func(tx *sqlx.Tx) error {
		if s.dialect == DialectPostgres {
			// sqlite takes the write lock with _txlock=immediate, postgres needs it explicitly
			if _, err := tx.ExecContext(ctx, "LOCK TABLE "+quoteIdent(s.table)+" IN EXCLUSIVE MODE"); err != nil {
				return fmt.Errorf("lock table: %w", err)
			}
		}

		var maxSeq int64
		if err := tx.GetContext(ctx, &maxSeq, maxQuery, maxArgs...); err != nil {
			return fmt.Errorf("get max offset: %w", err)
		}

		var pks []int64
		if err := tx.SelectContext(ctx, &pks, pendingQuery, pendingArgs...); err != nil {
			return fmt.Errorf("get unindexed entries: %w", err)
		}
		if len(pks) == 0 {
			return nil
		}

		stmt, err := tx.PreparexContext(ctx, updateQuery)
		if err != nil {
			return fmt.Errorf("prepare offset update: %w", err)
		}
		defer stmt.Close()

		for i, pk := range pks {
			if _, err := stmt.ExecContext(ctx, maxSeq+1+int64(i), pk); err != nil {
				return fmt.Errorf("assign offset %d: %w", maxSeq+1+int64(i), err)
			}
		}
		indexed = len(pks)
		return nil
	})
	return indexed, err
}
