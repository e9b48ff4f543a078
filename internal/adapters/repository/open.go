package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/okian/gradestats/pkg/logger"
	"github.com/okian/gradestats/pkg/metrics"
)

// Open builds the Store for driver. Network drivers are retried with
// exponential backoff until the store answers or the attempts run out.
func Open(ctx context.Context, driver Driver, opts ...Option) (Store, error) {
	o := openOptions{
		connectTimeout: DefaultConnectTimeout,
		maxTries:       DefaultMaxTries,
	}
	for _, opt := range opts {
		opt(&o)
	}

	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverFile:
		return LoadFile(o.file, o.log)
	case DriverSQLite, DriverPostgres, DriverMongo:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	attempt := func() (Store, error) {
		actx, cancel := context.WithTimeout(ctx, o.connectTimeout)
		defer cancel()

		var (
			s   Store
			err error
		)
		if driver == DriverMongo {
			s, err = OpenMongo(actx, o.mongoURI, o.mongoDatabase, o.mongoCollection)
		} else {
			s, err = OpenSQL(actx, driver, o.dsn)
		}
		if errors.Is(err, ErrMissingSetting) || errors.Is(err, ErrUnsupportedDriver) {
			return nil, backoff.Permanent(err)
		}
		return s, err
	}

	notify := func(err error, next time.Duration) {
		metrics.RecordSourceConnectRetry(string(driver))
		if o.log != nil {
			o.log.Warn(ctx, "source connection failed, retrying",
				logger.String("driver", string(driver)),
				logger.Duration("next_attempt_in", next),
				logger.Error(err))
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second

	s, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(o.maxTries),
		backoff.WithNotify(notify),
	)
	if err != nil {
		return nil, fmt.Errorf("open %s source: %w", driver, err)
	}
	return s, nil
}
