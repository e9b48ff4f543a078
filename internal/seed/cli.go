package seed

import "os"

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Grade Statistics Seed Tool
==========================

Generates synthetic learner score records and writes them to a record store.
Equal seeds produce equal records.

Usage:
  go run ./cmd/seed [options]

Options:
  -driver string
        Target store: memory, file, sqlite, postgres, mongo (default "sqlite")
  -dsn string
        SQL connection string (default: driver default)
  -file string
        Output file for the file driver
  -mongo-uri string
        MongoDB connection string (default: $ATLAS_URI)
  -learners int
        Number of learners (default 1000)
  -classes int
        Number of distinct classes (default 20)
  -per-learner int
        Classes each learner is enrolled in (default 3)
  -entries int
        Entries per score type in each record (default 2)
  -seed int
        Generator seed (default 1)
  -batch int
        Records per insert (default 500)
  -workers int
        Concurrent insert batches (default 4)
  -reset
        Drop existing records first
  -help
        Show this help message

Examples:
  # Seed the default sqlite database
  go run ./cmd/seed -reset

  # Write a YAML file for the file source
  go run ./cmd/seed -driver file -file grades.yaml -learners 200
`)
}
