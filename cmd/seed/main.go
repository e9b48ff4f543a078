package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"

	"github.com/okian/gradestats/internal/config"
	"github.com/okian/gradestats/internal/seed"
	"github.com/okian/gradestats/pkg/logger"
)

// Default configuration constants.
const (
	defaultSeed        = 1
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultSeedTimeout = 10 * time.Minute
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		os.Stderr.WriteString("failed to read .env: " + err.Error() + "\n")
	}

	var (
		driver     = flag.String("driver", seed.DefaultDriver, "Target store: memory, file, sqlite, postgres, mongo")
		dsn        = flag.String("dsn", "", "SQL connection string (default: driver default)")
		file       = flag.String("file", "", "Output file for the file driver")
		mongoURI   = flag.String("mongo-uri", os.Getenv(config.EnvAtlasURI), "MongoDB connection string")
		mongoDB    = flag.String("mongo-db", "", "MongoDB database (default: perscholas)")
		mongoColl  = flag.String("mongo-collection", "", "MongoDB collection (default: grades)")
		learners   = flag.Int("learners", seed.DefaultLearners, "Number of learners")
		classes    = flag.Int("classes", seed.DefaultClasses, "Number of distinct classes")
		perLearner = flag.Int("per-learner", seed.DefaultClassesPerLearner, "Classes each learner is enrolled in")
		entries    = flag.Int("entries", seed.DefaultEntriesPerType, "Entries per score type in each record")
		seedValue  = flag.Int64("seed", defaultSeed, "Generator seed")
		batch      = flag.Int("batch", seed.DefaultBatchSize, "Records per insert")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Concurrent insert batches")
		reset      = flag.Bool("reset", false, "Drop existing records first")
		timeout    = flag.Duration("timeout", defaultSeedTimeout, "Overall run timeout")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cfg := seed.Config{
		Driver:            *driver,
		DSN:               *dsn,
		File:              *file,
		MongoURI:          *mongoURI,
		MongoDatabase:     *mongoDB,
		MongoCollection:   *mongoColl,
		Learners:          *learners,
		Classes:           *classes,
		ClassesPerLearner: *perLearner,
		EntriesPerType:    *entries,
		Seed:              *seedValue,
		BatchSize:         *batch,
		Workers:           *workers,
		Reset:             *reset,
	}

	if _, err := seed.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "seed failed", logger.Error(err))
		os.Exit(1)
	}
}
