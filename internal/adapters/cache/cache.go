// Package cache stores computed statistics results for a short time so
// repeated requests do not re-read the whole record source.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/okian/gradestats/internal/domain/stats"
)

// Sentinel kinds for cache errors.
var (
	ErrUnsupportedDriver = errors.New("unsupported cache driver")
	ErrEncode            = errors.New("cache encode failed")
)

// Driver names a cache implementation.
type Driver string

// Supported drivers.
const (
	DriverNone   Driver = "none"
	DriverMemory Driver = "memory"
	DriverRedis  Driver = "redis"
)

// Cache holds results by key. A miss is reported as (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (*stats.Result, bool, error)
	Set(ctx context.Context, key string, r *stats.Result) error
	// Flush drops every entry, e.g. after the source changed.
	Flush(ctx context.Context) error
	Close() error
}

// GlobalKey is the key of the global result.
func GlobalKey() string { return "global" }

// ClassKey is the key of the result for classID.
func ClassKey(classID int64) string { return "class:" + strconv.FormatInt(classID, 10) }

// Nop never stores anything.
type Nop struct{}

// Get implements Cache.
func (Nop) Get(context.Context, string) (*stats.Result, bool, error) { return nil, false, nil }

// Set implements Cache.
func (Nop) Set(context.Context, string, *stats.Result) error { return nil }

// Flush implements Cache.
func (Nop) Flush(context.Context) error { return nil }

// Close implements Cache.
func (Nop) Close() error { return nil }

// ParseDriver maps a configuration value to a Driver.
func ParseDriver(s string) (Driver, error) {
	switch d := Driver(s); d {
	case DriverNone, DriverMemory, DriverRedis:
		return d, nil
	case "":
		return DriverNone, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, s)
	}
}
