package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/gradestats/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleResult() *stats.Result {
	classID := int64(10)
	lower, upper := 60.0, 70.0
	return &stats.Result{
		Scope:                    stats.ScopeClass,
		ClassID:                  &classID,
		Threshold:                70,
		TotalEntities:            3,
		EntitiesAboveThreshold:   1,
		PercentageAboveThreshold: 33.33,
		Distribution: []stats.Bucket{
			{ID: "60", Lower: &lower, Upper: &upper, Count: 1, Members: []int64{3}},
			{ID: stats.OtherBucketID, Count: 1, Members: []int64{9}},
		},
		LearnerScores: []stats.LearnerScore{{LearnerID: 3, WeightedAvg: 65}},
	}
}

func TestKeys(t *testing.T) {
	Convey("Given cache keys", t, func() {
		So(GlobalKey(), ShouldEqual, "global")
		So(ClassKey(42), ShouldEqual, "class:42")
		So(ClassKey(-1), ShouldEqual, "class:-1")
	})
}

func TestParseDriver(t *testing.T) {
	Convey("Given cache driver names", t, func() {
		d, err := ParseDriver("")
		So(err, ShouldBeNil)
		So(d, ShouldEqual, DriverNone)

		d, err = ParseDriver("redis")
		So(err, ShouldBeNil)
		So(d, ShouldEqual, DriverRedis)

		_, err = ParseDriver("memcached")
		So(errors.Is(err, ErrUnsupportedDriver), ShouldBeTrue)
	})
}

func TestNop(t *testing.T) {
	Convey("Given the nop cache", t, func() {
		ctx := context.Background()
		c, err := Open(ctx, DriverNone, time.Minute, RedisConfig{})
		So(err, ShouldBeNil)

		Convey("Then writes should never be read back", func() {
			So(c.Set(ctx, GlobalKey(), sampleResult()), ShouldBeNil)
			r, ok, err := c.Get(ctx, GlobalKey())
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
			So(r, ShouldBeNil)
		})
	})
}

func TestMemory(t *testing.T) {
	Convey("Given a memory cache", t, func() {
		ctx := context.Background()
		c := NewMemory(time.Minute)

		Convey("When a result is stored", func() {
			So(c.Set(ctx, ClassKey(10), sampleResult()), ShouldBeNil)

			Convey("Then it should be returned for the same key only", func() {
				r, ok, err := c.Get(ctx, ClassKey(10))
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(r, ShouldResemble, sampleResult())

				_, ok, _ = c.Get(ctx, ClassKey(11))
				So(ok, ShouldBeFalse)
			})

			Convey("And a flush should drop it", func() {
				So(c.Flush(ctx), ShouldBeNil)
				So(c.Len(), ShouldEqual, 0)
				_, ok, _ := c.Get(ctx, ClassKey(10))
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the TTL elapses", func() {
			short := NewMemory(20 * time.Millisecond)
			So(short.Set(ctx, GlobalKey(), sampleResult()), ShouldBeNil)
			time.Sleep(50 * time.Millisecond)

			Convey("Then the entry should be gone", func() {
				_, ok, err := short.Get(ctx, GlobalKey())
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("GRADESTATS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("GRADESTATS_TEST_REDIS_ADDR not set")
	}

	Convey("Given a redis cache", t, func() {
		ctx := context.Background()
		c, err := Open(ctx, DriverRedis, time.Minute, RedisConfig{Addr: addr})
		So(err, ShouldBeNil)
		defer c.Close()
		So(c.Flush(ctx), ShouldBeNil)

		Convey("When a result is stored", func() {
			So(c.Set(ctx, ClassKey(10), sampleResult()), ShouldBeNil)

			Convey("Then it should round trip through JSON", func() {
				r, ok, err := c.Get(ctx, ClassKey(10))
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(r, ShouldResemble, sampleResult())
			})

			Convey("And a flush should drop it", func() {
				So(c.Flush(ctx), ShouldBeNil)
				_, ok, err := c.Get(ctx, ClassKey(10))
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestRedisUnreachable(t *testing.T) {
	Convey("Given a redis address nobody listens on", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err := NewRedis(ctx, RedisConfig{Addr: "127.0.0.1:1"})

		Convey("Then opening should fail", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
