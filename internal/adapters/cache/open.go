package cache

import (
	"context"
	"fmt"
	"time"
)

// Open builds the cache for driver.
func Open(ctx context.Context, driver Driver, ttl time.Duration, rc RedisConfig) (Cache, error) {
	switch driver {
	case DriverNone, "":
		return Nop{}, nil
	case DriverMemory:
		return NewMemory(ttl), nil
	case DriverRedis:
		rc.TTL = ttl
		return NewRedis(ctx, rc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}
