package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite

	"github.com/okian/gradestats/internal/domain/grades"
)

// Default DSNs used when none is configured.
const (
	DefaultSQLiteDSN   = "file:gradestats.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
	DefaultPostgresDSN = "postgres://localhost:5432/gradestats?sslmode=disable"
)

// SQLStore keeps score records in two tables: grades holds one row per
// record and grade_scores one row per entry, ordered by seq.
type SQLStore struct {
	db     *sql.DB
	driver Driver
	psql   sq.StatementBuilderType
}

// OpenSQL opens a sqlite or postgres database, tunes the pool, verifies
// connectivity and ensures the schema exists.
func OpenSQL(ctx context.Context, driver Driver, dsn string) (*SQLStore, error) {
	var drvName string
	var format sq.PlaceholderFormat = sq.Question
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = DefaultSQLiteDSN
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = DefaultPostgresDSN
		}
		format = sq.Dollar
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}
	tunePool(driver, db)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	if driver == DriverSQLite {
		if err := applySQLitePragmas(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := ensureSchema(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: schema: %w", err)
	}

	return &SQLStore{
		db:     db,
		driver: driver,
		psql:   sq.StatementBuilder.PlaceholderFormat(format),
	}, nil
}

// FetchScoreRecords implements Store. Records without entries are kept.
func (s *SQLStore) FetchScoreRecords(ctx context.Context, f grades.Filter) ([]grades.ScoreRecord, error) {
	q := s.psql.
		Select("g.id", "g.learner_id", "g.class_id", "s.type", "s.score").
		From("grades g").
		LeftJoin("grade_scores s ON s.grade_id = g.id").
		OrderBy("g.id", "s.seq")
	if f.ClassID != nil {
		q = q.Where(sq.Eq{"g.class_id": *f.ClassID})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out    []grades.ScoreRecord
		lastID int64 = -1
	)
	for rows.Next() {
		var (
			id, learnerID, classID int64
			typ                    sql.NullString
			score                  sql.NullFloat64
		)
		if err := rows.Scan(&id, &learnerID, &classID, &typ, &score); err != nil {
			return nil, err
		}
		if id != lastID {
			out = append(out, grades.ScoreRecord{LearnerID: learnerID, ClassID: classID})
			lastID = id
		}
		if typ.Valid {
			cur := &out[len(out)-1]
			cur.Scores = append(cur.Scores, grades.ScoreEntry{
				Type:  grades.ScoreType(typ.String),
				Score: score.Float64,
			})
		}
	}
	return out, rows.Err()
}

// InsertScoreRecords implements Writer. All records are written in one
// transaction.
func (s *SQLStore) InsertScoreRecords(ctx context.Context, records []grades.ScoreRecord) error {
	if err := validateRecords(records); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, r := range records {
			query, args, err := s.psql.
				Insert("grades").
				Columns("learner_id", "class_id").
				Values(r.LearnerID, r.ClassID).
				Suffix("RETURNING id").
				ToSql()
			if err != nil {
				return err
			}
			var id int64
			if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
				return fmt.Errorf("insert grade: %w", err)
			}
			if len(r.Scores) == 0 {
				continue
			}
			ins := s.psql.Insert("grade_scores").Columns("grade_id", "seq", "type", "score")
			for i, e := range r.Scores {
				ins = ins.Values(id, i, string(e.Type), e.Score)
			}
			query, args, err = ins.ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("insert scores: %w", err)
			}
		}
		return nil
	})
}

// Reset deletes every stored record.
func (s *SQLStore) Reset(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"grade_scores", "grades"} {
			query, args, err := s.psql.Delete(table).ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return err
			}
		}
		return nil
	})
}

// Ping implements Store.
func (s *SQLStore) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	return s.db.PingContext(ctx)
}

// Driver implements Store.
func (s *SQLStore) Driver() Driver { return s.driver }

// Close implements Store.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// withTx runs fn in a transaction, committing when fn returns nil.
func (s *SQLStore) withTx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if e := tx.Commit(); e != nil {
			err = fmt.Errorf("storage: commit: %w", e)
		}
	}()
	err = fn(tx)
	return
}

// tunePool sets conservative pool defaults per driver.
func tunePool(driver Driver, db *sql.DB) {
	maxOpen := 20
	maxIdle := 10
	connLife := 45 * time.Minute
	idleLife := 15 * time.Minute

	if driver == DriverSQLite {
		// Single writer: keep the pool tiny to avoid busy errors.
		maxOpen = 1
		maxIdle = 1
		connLife = 0
		idleLife = 0
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(connLife)
	db.SetConnMaxIdleTime(idleLife)
}

func applySQLitePragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA temp_store = MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("storage: sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var stmts []string
	switch driver {
	case DriverSQLite:
		stmts = schemaSQLite
	case DriverPostgres:
		stmts = schemaPostgres
	default:
		return errors.New("no schema for driver " + string(driver))
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

var schemaSQLite = []string{
	`CREATE TABLE IF NOT EXISTS grades (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  learner_id INTEGER NOT NULL,
  class_id INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS grades_class_id_idx ON grades (class_id)`,
	`CREATE TABLE IF NOT EXISTS grade_scores (
  grade_id INTEGER NOT NULL REFERENCES grades(id) ON DELETE CASCADE,
  seq INTEGER NOT NULL,
  type TEXT NOT NULL,
  score REAL NOT NULL,
  PRIMARY KEY (grade_id, seq)
)`,
}

var schemaPostgres = []string{
	`CREATE TABLE IF NOT EXISTS grades (
  id BIGSERIAL PRIMARY KEY,
  learner_id BIGINT NOT NULL,
  class_id BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS grades_class_id_idx ON grades (class_id)`,
	`CREATE TABLE IF NOT EXISTS grade_scores (
  grade_id BIGINT NOT NULL REFERENCES grades(id) ON DELETE CASCADE,
  seq INTEGER NOT NULL,
  type TEXT NOT NULL,
  score DOUBLE PRECISION NOT NULL,
  PRIMARY KEY (grade_id, seq)
)`,
}
