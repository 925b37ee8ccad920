package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"options-journal/internal/errors"
	"options-journal/internal/models"
	"options-journal/internal/pnl"
)

// SQLiteStore implements StructureStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed bootstraps) a SQLite-backed store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS structures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		multiplier INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		closing_date DATETIME,
		realized_pnl TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS legs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		structure_id INTEGER NOT NULL REFERENCES structures(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		strike REAL NOT NULL,
		expiry DATETIME NOT NULL,
		quantity INTEGER NOT NULL,
		open_price REAL NOT NULL,
		open_date DATETIME NOT NULL,
		close_price REAL,
		close_date DATETIME,
		implied_vol_pct REAL NOT NULL,
		open_commission REAL NOT NULL DEFAULT 0,
		close_commission REAL NOT NULL DEFAULT 0,
		seq INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_structures_status ON structures(status);
	CREATE INDEX IF NOT EXISTS idx_legs_structure ON legs(structure_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveStructure inserts a new structure with its legs, or replaces the
// legs of an existing one. Legs are validated before anything touches
// the database.
func (s *SQLiteStore) SaveStructure(ctx context.Context, st *models.Structure) error {
	for i, leg := range st.Legs {
		if err := leg.Validate(); err != nil {
			return errors.NewDataError("leg", fmt.Sprintf("leg %d invalid", i), err)
		}
	}
	if st.Multiplier <= 0 {
		return errors.NewDataError("structure", "multiplier must be positive", nil)
	}
	if st.Status == "" {
		st.Status = models.StructureActive
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewDataError("structure", "begin tx", err)
	}
	defer tx.Rollback()

	if st.ID == 0 {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO structures (name, multiplier, status, closing_date, realized_pnl) VALUES (?, ?, ?, ?, ?)`,
			st.Name, st.Multiplier, string(st.Status), st.ClosingDate, nullableString(st.RealizedPnl))
		if err != nil {
			return errors.NewDataError("structure", "insert", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return errors.NewDataError("structure", "last insert id", err)
		}
		st.ID = id
	} else {
		if _, err := tx.ExecContext(ctx,
			`UPDATE structures SET name = ?, multiplier = ?, status = ?, closing_date = ?, realized_pnl = ? WHERE id = ?`,
			st.Name, st.Multiplier, string(st.Status), st.ClosingDate, nullableString(st.RealizedPnl), st.ID); err != nil {
			return errors.NewDataError("structure", "update", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM legs WHERE structure_id = ?`, st.ID); err != nil {
			return errors.NewDataError("legs", "clear", err)
		}
	}

	for i, leg := range st.Legs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO legs (structure_id, kind, strike, expiry, quantity, open_price, open_date,
				close_price, close_date, implied_vol_pct, open_commission, close_commission, seq)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			st.ID, string(leg.Contract.Kind), leg.Contract.Strike, leg.Contract.Expiry.UTC(),
			leg.Quantity, leg.OpenPrice, leg.OpenDate.UTC(),
			leg.ClosePrice, nullableTime(leg.CloseDate), leg.ImpliedVolPct,
			leg.OpenCommission, leg.CloseCommission, i); err != nil {
			return errors.NewDataError("leg", fmt.Sprintf("insert leg %d", i), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewDataError("structure", "commit", err)
	}
	return nil
}

// GetStructure loads a structure with its legs in insertion order.
func (s *SQLiteStore) GetStructure(ctx context.Context, id int64) (*models.Structure, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, multiplier, status, closing_date, realized_pnl, created_at FROM structures WHERE id = ?`, id)

	st, err := scanStructure(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrStructureNotFound, "id %d", id)
	}
	if err != nil {
		return nil, errors.NewDataError("structure", "scan", err)
	}

	legs, err := s.loadLegs(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	st.Legs = legs
	return st, nil
}

// ListStructures returns structures matching the filter, newest first.
func (s *SQLiteStore) ListStructures(ctx context.Context, filter StructureFilter) ([]models.Structure, error) {
	query := `SELECT id, name, multiplier, status, closing_date, realized_pnl, created_at FROM structures WHERE 1=1`
	var args []interface{}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Name != "" {
		query += ` AND name LIKE ?`
		args = append(args, "%"+filter.Name+"%")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewDataError("structure", "list", err)
	}
	defer rows.Close()

	var structures []models.Structure
	for rows.Next() {
		st, err := scanStructure(rows)
		if err != nil {
			return nil, errors.NewDataError("structure", "scan", err)
		}
		legs, err := s.loadLegs(ctx, st.ID)
		if err != nil {
			return nil, err
		}
		st.Legs = legs
		structures = append(structures, *st)
	}
	return structures, rows.Err()
}

// DeleteStructure removes a structure and its legs.
func (s *SQLiteStore) DeleteStructure(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM structures WHERE id = ?`, id)
	if err != nil {
		return errors.NewDataError("structure", "delete", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(errors.ErrStructureNotFound, "id %d", id)
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM legs WHERE structure_id = ?`, id)
	if err != nil {
		return errors.NewDataError("legs", "delete", err)
	}
	return nil
}

// CloseStructure settles every open leg at the supplied snapshot and
// transitions the structure to CLOSED. Closing an already-closed
// structure is a domain violation.
func (s *SQLiteStore) CloseStructure(ctx context.Context, id int64, market models.MarketSnapshot, now time.Time) (*pnl.Settlement, error) {
	st, err := s.GetStructure(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.Status == models.StructureClosed {
		return nil, errors.NewTransitionError(id, string(st.Status), "close")
	}

	settlement, err := pnl.SettleStructure(*st, market, now)
	if err != nil {
		return nil, errors.Wrapf(err, "settling structure %d", id)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewDataError("structure", "begin tx", err)
	}
	defer tx.Rollback()

	for i, leg := range st.Legs {
		if leg.IsClosed() {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE legs SET close_price = ?, close_date = ? WHERE structure_id = ? AND seq = ?`,
			settlement.ClosePrices[i], settlement.ClosingDate.UTC(), id, i); err != nil {
			return nil, errors.NewDataError("leg", fmt.Sprintf("settle leg %d", i), err)
		}
	}

	realized := strconv.FormatFloat(settlement.RealizedPnl, 'f', 2, 64)
	if _, err := tx.ExecContext(ctx,
		`UPDATE structures SET status = ?, closing_date = ?, realized_pnl = ? WHERE id = ?`,
		string(models.StructureClosed), settlement.ClosingDate.UTC(), realized, id); err != nil {
		return nil, errors.NewDataError("structure", "close", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewDataError("structure", "commit", err)
	}
	return &settlement, nil
}

// ReopenStructure clears the close fields of every leg and discards the
// cached realized P&L. Reopening an active structure is a domain
// violation.
func (s *SQLiteStore) ReopenStructure(ctx context.Context, id int64) error {
	st, err := s.GetStructure(ctx, id)
	if err != nil {
		return err
	}
	if st.Status == models.StructureActive {
		return errors.NewTransitionError(id, string(st.Status), "reopen")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewDataError("structure", "begin tx", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE legs SET close_price = NULL, close_date = NULL WHERE structure_id = ?`, id); err != nil {
		return errors.NewDataError("legs", "reopen", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE structures SET status = ?, closing_date = NULL, realized_pnl = NULL WHERE id = ?`,
		string(models.StructureActive), id); err != nil {
		return errors.NewDataError("structure", "reopen", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewDataError("structure", "commit", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStructure(row rowScanner) (*models.Structure, error) {
	var (
		st          models.Structure
		status      string
		realized    sql.NullString
		closingDate sql.NullTime
	)
	err := row.Scan(&st.ID, &st.Name, &st.Multiplier, &status, &closingDate, &realized, &st.CreatedAt)
	if err != nil {
		return nil, err
	}
	st.Status = models.StructureStatus(status)
	if closingDate.Valid {
		t := closingDate.Time.UTC()
		st.ClosingDate = &t
	}
	if realized.Valid {
		st.RealizedPnl = realized.String
	}
	return &st, nil
}

func (s *SQLiteStore) loadLegs(ctx context.Context, structureID int64) ([]models.Leg, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, strike, expiry, quantity, open_price, open_date,
			close_price, close_date, implied_vol_pct, open_commission, close_commission
		 FROM legs WHERE structure_id = ? ORDER BY seq`, structureID)
	if err != nil {
		return nil, errors.NewDataError("legs", "query", err)
	}
	defer rows.Close()

	var legs []models.Leg
	for rows.Next() {
		var (
			leg        models.Leg
			kind       string
			closePrice sql.NullFloat64
			closeDate  sql.NullTime
		)
		if err := rows.Scan(&kind, &leg.Contract.Strike, &leg.Contract.Expiry, &leg.Quantity,
			&leg.OpenPrice, &leg.OpenDate, &closePrice, &closeDate,
			&leg.ImpliedVolPct, &leg.OpenCommission, &leg.CloseCommission); err != nil {
			return nil, errors.NewDataError("legs", "scan", err)
		}
		leg.Contract.Kind = models.OptionKind(kind)
		if closePrice.Valid {
			v := closePrice.Float64
			leg.ClosePrice = &v
		}
		if closeDate.Valid {
			t := closeDate.Time.UTC()
			leg.CloseDate = &t
		}
		legs = append(legs, leg)
	}
	return legs, rows.Err()
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
