package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/gradestats/internal/config"
	"github.com/okian/gradestats/internal/domain/stats"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.SourceDriver, convey.ShouldEqual, "sqlite")
			convey.So(cfg.MongoDatabase, convey.ShouldEqual, "perscholas")
			convey.So(cfg.MongoCollection, convey.ShouldEqual, "grades")
			convey.So(cfg.CacheDriver, convey.ShouldEqual, "none")
			convey.So(cfg.GlobalThreshold, convey.ShouldEqual, float64(50))
			convey.So(cfg.ClassThreshold, convey.ShouldEqual, float64(70))
			convey.So(cfg.SampleSize, convey.ShouldEqual, 100)
			convey.So(cfg.GlobalBoundaries, convey.ShouldResemble, []float64{0, 20, 40, 60, 80, 100})
			convey.So(cfg.ClassBoundaries, convey.ShouldResemble, []float64{0, 60, 70, 80, 90, 100})
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the duration helpers should convert milliseconds", func() {
			convey.So(cfg.ConnectTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.CacheTTL(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.RequestTimeout(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.ShutdownTimeout(), convey.ShouldEqual, 10*time.Second)
		})

		convey.Convey("Then the weights should match the engine defaults", func() {
			w, err := cfg.EngineWeights()
			convey.So(err, convey.ShouldBeNil)
			convey.So(w, convey.ShouldResemble, stats.DefaultWeights())
		})

		convey.Convey("Then the engine options should build a valid engine", func() {
			opts, err := cfg.EngineOptions()
			convey.So(err, convey.ShouldBeNil)
			_, err = stats.NewEngine(nopSource{}, opts...)
			convey.So(err, convey.ShouldBeNil)
		})
	})
}
