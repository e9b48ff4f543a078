package repository

import (
	"time"

	"github.com/okian/gradestats/pkg/logger"
)

// Default connection settings.
const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultMaxTries       = 5
)

type openOptions struct {
	dsn             string
	file            string
	mongoURI        string
	mongoDatabase   string
	mongoCollection string
	connectTimeout  time.Duration
	maxTries        uint
	log             logger.Logger
}

// Option applies a configuration option to Open.
type Option func(*openOptions)

// WithDSN sets the SQL data source name.
func WithDSN(dsn string) Option {
	return func(o *openOptions) {
		o.dsn = dsn
	}
}

// WithFile sets the path read by the file driver.
func WithFile(path string) Option {
	return func(o *openOptions) {
		o.file = path
	}
}

// WithMongo sets the MongoDB connection string, database and collection.
func WithMongo(uri, database, collection string) Option {
	return func(o *openOptions) {
		o.mongoURI = uri
		o.mongoDatabase = database
		o.mongoCollection = collection
	}
}

// WithConnectTimeout bounds each connection attempt.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *openOptions) {
		if d > 0 {
			o.connectTimeout = d
		}
	}
}

// WithMaxTries sets how many connection attempts are made before giving up.
func WithMaxTries(n int) Option {
	return func(o *openOptions) {
		if n > 0 {
			o.maxTries = uint(n)
		}
	}
}

// WithLogger sets the logger used for retries and file reloads.
func WithLogger(l logger.Logger) Option {
	return func(o *openOptions) {
		o.log = l
	}
}
