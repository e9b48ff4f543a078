// Package seed generates synthetic score records and loads them into a
// writable record store.
package seed

import "time"

// Default configuration values.
const (
	DefaultDriver            = "sqlite"
	DefaultLearners          = 1000
	DefaultClasses           = 20
	DefaultClassesPerLearner = 3
	DefaultEntriesPerType    = 2
	DefaultBatchSize         = 500
	DefaultWorkers           = 4
)

// Config holds configuration for a seeding run.
type Config struct {
	Driver            string // Target source driver (memory|file|sqlite|postgres|mongo)
	DSN               string // SQL connection string; empty uses the driver default
	File              string // Output path for the file driver
	MongoURI          string
	MongoDatabase     string
	MongoCollection   string
	Learners          int   // Number of distinct learners
	Classes           int   // Number of distinct classes ids are drawn from
	ClassesPerLearner int   // Classes each learner is enrolled in
	EntriesPerType    int   // Entries of each score type per record
	Seed              int64 // Generator seed; equal seeds yield equal records
	BatchSize         int   // Records per insert
	Workers           int   // Concurrent insert batches
	Reset             bool  // Drop existing records before loading
}

// withDefaults fills zero values with defaults.
func (c Config) withDefaults() Config {
	if c.Driver == "" {
		c.Driver = DefaultDriver
	}
	if c.Learners <= 0 {
		c.Learners = DefaultLearners
	}
	if c.Classes <= 0 {
		c.Classes = DefaultClasses
	}
	if c.ClassesPerLearner <= 0 {
		c.ClassesPerLearner = DefaultClassesPerLearner
	}
	if c.ClassesPerLearner > c.Classes {
		c.ClassesPerLearner = c.Classes
	}
	if c.EntriesPerType <= 0 {
		c.EntriesPerType = DefaultEntriesPerType
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	return c
}

// Stats holds run statistics.
type Stats struct {
	RecordsGenerated int
	RecordsWritten   int
	Batches          int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
