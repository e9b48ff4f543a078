// Package repository provides the score record stores the statistics engine
// reads from: in-memory, file backed, SQL (sqlite or postgres) and MongoDB.
package repository

import (
	"context"
	"fmt"

	"github.com/okian/gradestats/internal/domain/grades"
)

// Driver names a store implementation.
type Driver string

// Supported drivers.
const (
	DriverMemory   Driver = "memory"
	DriverFile     Driver = "file"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMongo    Driver = "mongo"
)

// ParseDriver maps a configuration value to a Driver.
func ParseDriver(s string) (Driver, error) {
	switch d := Driver(s); d {
	case DriverMemory, DriverFile, DriverSQLite, DriverPostgres, DriverMongo:
		return d, nil
	case "pg", "pgx", "postgresql":
		return DriverPostgres, nil
	case "sqlite3":
		return DriverSQLite, nil
	case "mongodb":
		return DriverMongo, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, s)
	}
}

// Store is a read-only view of the score records.
type Store interface {
	// FetchScoreRecords returns a snapshot of the records passing f.
	// Records are returned in insertion order.
	FetchScoreRecords(ctx context.Context, f grades.Filter) ([]grades.ScoreRecord, error)
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
	// Driver names the implementation.
	Driver() Driver
	Close() error
}

// Writer appends score records. The seed loader and tests use it.
type Writer interface {
	InsertScoreRecords(ctx context.Context, records []grades.ScoreRecord) error
}

// ReadWriter is a Store that also accepts writes.
type ReadWriter interface {
	Store
	Writer
}

func validateRecords(records []grades.ScoreRecord) error {
	for i, r := range records {
		for j, e := range r.Scores {
			if e.Type == "" {
				return fmt.Errorf("%w: record %d entry %d has no type", ErrInvalidRecord, i, j)
			}
		}
	}
	return nil
}

func cloneRecord(r grades.ScoreRecord) grades.ScoreRecord {
	out := r
	if r.Scores != nil {
		out.Scores = append([]grades.ScoreEntry(nil), r.Scores...)
	}
	return out
}
