package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/gradestats/internal/domain/grades"
	"github.com/okian/gradestats/internal/domain/stats"
)

// globalResponse is the GET /stats body.
type globalResponse struct {
	LearnersAboveThreshold   int         `json:"learners_above_threshold"`
	TotalLearners            int         `json:"total_learners"`
	PercentageAboveThreshold float64     `json:"percentage_above_threshold"`
	Threshold                float64     `json:"threshold"`
	Debug                    globalDebug `json:"debug"`
}

type globalDebug struct {
	SampleLearners    []grades.LearnerSummary `json:"sample_learners"`
	ScoreDistribution []stats.Bucket          `json:"score_distribution"`
}

// classResponse is the GET /stats/{class_id} body.
type classResponse struct {
	ClassID    int64           `json:"class_id"`
	Statistics classStatistics `json:"statistics"`
	Debug      classDebug      `json:"debug"`
}

type classStatistics struct {
	LearnersAboveThreshold   int     `json:"learners_above_threshold"`
	TotalLearners            int     `json:"total_learners"`
	PercentageAboveThreshold float64 `json:"percentage_above_threshold"`
	Threshold                float64 `json:"threshold"`
}

type classDebug struct {
	ScoreDistribution []stats.Bucket       `json:"score_distribution"`
	LearnerScores     []stats.LearnerScore `json:"learner_scores"`
}

// GradeStatsHandler serves the statistics endpoints.
type GradeStatsHandler struct {
	deps Dependencies
}

// NewGradeStatsHandler creates a new grade statistics handler.
func NewGradeStatsHandler(deps Dependencies) *GradeStatsHandler {
	return &GradeStatsHandler{deps: deps}
}

// HandleGlobal handles GET /stats requests.
func (h *GradeStatsHandler) HandleGlobal(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.GlobalStats(r.Context())
	if err != nil {
		writeStatsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newGlobalResponse(res))
}

// HandleClass handles GET /stats/{class_id} requests.
func (h *GradeStatsHandler) HandleClass(w http.ResponseWriter, r *http.Request) {
	classID, err := parseClassID(chi.URLParam(r, "class_id"))
	if err != nil {
		writeStatsError(w, err)
		return
	}
	res, err := h.deps.ClassStats(r.Context(), classID)
	if err != nil {
		writeStatsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newClassResponse(classID, res))
}

// HandleFlushCache handles DELETE /cache requests.
func (h *GradeStatsHandler) HandleFlushCache(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.InvalidateCache(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseClassID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: class_id must be an integer, got %q", ErrBadRequest, raw)
	}
	return id, nil
}

func newGlobalResponse(res *stats.Result) globalResponse {
	return globalResponse{
		LearnersAboveThreshold:   res.EntitiesAboveThreshold,
		TotalLearners:            res.TotalEntities,
		PercentageAboveThreshold: res.PercentageAboveThreshold,
		Threshold:                res.Threshold,
		Debug: globalDebug{
			SampleLearners:    nonNil(res.Sample),
			ScoreDistribution: nonNil(res.Distribution),
		},
	}
}

func newClassResponse(classID int64, res *stats.Result) classResponse {
	return classResponse{
		ClassID: classID,
		Statistics: classStatistics{
			LearnersAboveThreshold:   res.EntitiesAboveThreshold,
			TotalLearners:            res.TotalEntities,
			PercentageAboveThreshold: res.PercentageAboveThreshold,
			Threshold:                res.Threshold,
		},
		Debug: classDebug{
			ScoreDistribution: nonNil(res.Distribution),
			LearnerScores:     nonNil(res.LearnerScores),
		},
	}
}

// nonNil keeps empty lists as [] rather than null on the wire.
func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
