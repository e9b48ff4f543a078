package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/okian/gradestats/internal/adapters/repository"
	app "github.com/okian/gradestats/internal/app"
	"github.com/okian/gradestats/internal/config"
	"github.com/okian/gradestats/internal/domain/grades"
	"github.com/okian/gradestats/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
}

func testRecords() []grades.ScoreRecord {
	return []grades.ScoreRecord{
		{LearnerID: 1, ClassID: 10, Scores: []grades.ScoreEntry{
			{Type: grades.ScoreTypeExam, Score: 80},
			{Type: grades.ScoreTypeQuiz, Score: 90},
			{Type: grades.ScoreTypeHomework, Score: 70},
		}},
		{LearnerID: 2, ClassID: 10, Scores: []grades.ScoreEntry{
			{Type: grades.ScoreTypeExam, Score: 60},
			{Type: grades.ScoreTypeQuiz, Score: 60},
			{Type: grades.ScoreTypeHomework, Score: 60},
		}},
	}
}

func memoryConfig() *config.Config {
	cfg := config.New(context.Background())
	cfg.SourceDriver = "memory"
	cfg.CacheDriver = "memory"
	return cfg
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("GRADESTATS_ADDR", ":8080")
			_ = os.Setenv("GRADESTATS_SOURCE_DRIVER", "memory")
			_ = os.Setenv("GRADESTATS_CLASS_THRESHOLD", "65")
			defer func() {
				_ = os.Unsetenv("GRADESTATS_ADDR")
				_ = os.Unsetenv("GRADESTATS_SOURCE_DRIVER")
				_ = os.Unsetenv("GRADESTATS_CLASS_THRESHOLD")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.SourceDriver, convey.ShouldEqual, "memory")
				convey.So(cfg.ClassThreshold, convey.ShouldEqual, 65.0)
			})
		})

		convey.Convey("When testing service creation", func() {
			convey.Convey("Then service should be creatable with default options", func() {
				svc := app.New()
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestRouter(t *testing.T) {
	convey.Convey("Given a started service on an in-memory store", t, func() {
		ctx := context.Background()
		cfg := memoryConfig()
		svc := app.New(
			app.WithConfig(cfg),
			app.WithStore(repository.NewMemoryStore(testRecords()...)),
		)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		h := newRouter(ctx, cfg, svc, logger.Get())

		get := func(path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			return w
		}

		convey.Convey("When requesting class statistics", func() {
			w := get("/stats/10")

			convey.Convey("Then the computed envelope should be served", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				var body struct {
					ClassID    int64 `json:"class_id"`
					Statistics struct {
						Above      int     `json:"learners_above_threshold"`
						Total      int     `json:"total_learners"`
						Percentage float64 `json:"percentage_above_threshold"`
					} `json:"statistics"`
				}
				convey.So(json.NewDecoder(w.Body).Decode(&body), convey.ShouldBeNil)
				convey.So(body.ClassID, convey.ShouldEqual, int64(10))
				convey.So(body.Statistics.Total, convey.ShouldEqual, 2)
				convey.So(body.Statistics.Above, convey.ShouldEqual, 1)
				convey.So(body.Statistics.Percentage, convey.ShouldEqual, 50.0)
			})
		})

		convey.Convey("When requesting an unknown class", func() {
			convey.Convey("Then 404 should be returned", func() {
				convey.So(get("/stats/404").Code, convey.ShouldEqual, http.StatusNotFound)
			})
		})

		convey.Convey("When requesting global statistics", func() {
			convey.Convey("Then 200 should be returned", func() {
				convey.So(get("/stats").Code, convey.ShouldEqual, http.StatusOK)
			})
		})

		convey.Convey("When requesting docs, landing page and health", func() {
			convey.Convey("Then every mounted route should answer", func() {
				convey.So(get("/").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get("/api-docs").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get("/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get("/healthz").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get("/metrics").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get("/status").Code, convey.ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a memory-backed configuration", t, func() {
		cfg := memoryConfig()
		cfg.Addr = "127.0.0.1:0"
		cfg.ShutdownTimeoutMS = 1000

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- run(ctx, cfg, logger.Get()) }()
			time.Sleep(100 * time.Millisecond)
			cancel()

			convey.Convey("Then run should shut down cleanly", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					t.Fatal("run did not return after cancel")
				}
			})
		})

		convey.Convey("When the address cannot be bound", func() {
			cfg.Addr = "127.0.0.1:-1"
			err := run(context.Background(), cfg, logger.Get())

			convey.Convey("Then run should report the listener failure", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the source cannot be opened", func() {
			cfg.SourceDriver = "file"
			cfg.SourceFile = "/nonexistent/grades.yaml"
			err := run(context.Background(), cfg, logger.Get())

			convey.Convey("Then run should fail before serving", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("When updating once", func() {
			convey.Convey("Then it should not panic", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx, 10*time.Millisecond)
				close(done)
			}()
			time.Sleep(30 * time.Millisecond)
			cancel()

			convey.Convey("Then the updater should stop", func() {
				select {
				case <-done:
					convey.So(true, convey.ShouldBeTrue)
				case <-time.After(time.Second):
					t.Fatal("updater did not stop")
				}
			})
		})
	})
}
