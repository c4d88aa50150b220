package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/jobsapi/internal/apperrors"
	"github.com/geocoder89/jobsapi/internal/cache"
	"github.com/geocoder89/jobsapi/internal/config"
	"github.com/geocoder89/jobsapi/internal/domain/job"
	"github.com/geocoder89/jobsapi/internal/http/middlewares"
)

const (
	defaultListLimit = 10
	maxListLimit     = 50
)

type JobsStore interface {
	Create(ctx context.Context, userID string, req job.CreateRequest) (job.Job, error)
	ListByUser(ctx context.Context, userID string, filter job.ListFilter) ([]job.Job, int, error)
	GetByID(ctx context.Context, userID, id string) (job.Job, error)
	Update(ctx context.Context, userID, id string, req job.UpdateRequest) (job.Job, error)
	Delete(ctx context.Context, userID, id string) error
	CountByStatus(ctx context.Context, userID string) (map[job.Status]int, error)
}

type JobsHandler struct {
	repo  JobsStore
	stats *cache.Cache
}

func NewJobsHandler(repo JobsStore, stats *cache.Cache) *JobsHandler {
	return &JobsHandler{repo: repo, stats: stats}
}

func (h *JobsHandler) CreateJob(ctx *gin.Context) {
	userID := mustUserID(ctx)

	if userID == "" {
		return
	}

	var req job.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	j, err := h.repo.Create(cctx, userID, req)

	if err != nil {
		fail(ctx, apperrors.Wrap(apperrors.KindUnknown, "could not create job", err))
		return
	}

	h.invalidateStats(userID)

	ctx.JSON(http.StatusCreated, j)
}

func (h *JobsHandler) ListJobs(ctx *gin.Context) {
	userID := mustUserID(ctx)

	if userID == "" {
		return
	}

	filter, ok := parseListFilter(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, total, err := h.repo.ListByUser(cctx, userID, filter)

	if err != nil {
		fail(ctx, apperrors.Wrap(apperrors.KindUnknown, "could not list jobs", err))
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
		"total": total,
	})
}

func (h *JobsHandler) GetJobByID(ctx *gin.Context) {
	userID := mustUserID(ctx)

	if userID == "" {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	j, err := h.repo.GetByID(cctx, userID, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			fail(ctx, apperrors.NotFound("Job not found"))
			return
		}
		fail(ctx, apperrors.Wrap(apperrors.KindUnknown, "could not fetch job", err))
		return
	}

	ctx.JSON(http.StatusOK, j)
}

func (h *JobsHandler) UpdateJob(ctx *gin.Context) {
	userID := mustUserID(ctx)

	if userID == "" {
		return
	}

	var req job.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	j, err := h.repo.Update(cctx, userID, ctx.Param("id"), req)

	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			fail(ctx, apperrors.NotFound("Job not found"))
			return
		}
		fail(ctx, apperrors.Wrap(apperrors.KindUnknown, "could not update job", err))
		return
	}

	h.invalidateStats(userID)

	ctx.JSON(http.StatusOK, j)
}

func (h *JobsHandler) DeleteJob(ctx *gin.Context) {
	userID := mustUserID(ctx)

	if userID == "" {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, userID, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			fail(ctx, apperrors.NotFound("Job not found"))
			return
		}
		fail(ctx, apperrors.Wrap(apperrors.KindUnknown, "could not delete job", err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// Stats reports the user's application counts per status. Served from a
// short-lived cache that job writes invalidate.
func (h *JobsHandler) Stats(ctx *gin.Context) {
	userID := mustUserID(ctx)

	if userID == "" {
		return
	}

	if h.stats != nil {
		if cached, ok := h.stats.Get(statsKey(userID)); ok {
			ctx.JSON(http.StatusOK, cached)
			return
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	counts, err := h.repo.CountByStatus(cctx, userID)

	if err != nil {
		fail(ctx, apperrors.Wrap(apperrors.KindUnknown, "could not compute stats", err))
		return
	}

	body := gin.H{
		"pending":   counts[job.StatusPending],
		"interview": counts[job.StatusInterview],
		"declined":  counts[job.StatusDeclined],
	}

	if h.stats != nil {
		h.stats.Set(statsKey(userID), body)
	}

	ctx.JSON(http.StatusOK, body)
}

func (h *JobsHandler) invalidateStats(userID string) {
	if h.stats != nil {
		h.stats.Delete(statsKey(userID))
	}
}

func statsKey(userID string) string {
	return "stats:" + userID
}

func parseListFilter(ctx *gin.Context) (job.ListFilter, bool) {
	filter := job.ListFilter{
		Limit: defaultListLimit,
	}

	if raw := ctx.Query("status"); raw != "" {
		status := job.Status(raw)

		switch status {
		case job.StatusPending, job.StatusInterview, job.StatusDeclined:
			filter.Status = &status
		default:
			fail(ctx, apperrors.Validation("Invalid status filter", []FieldError{
				{Field: "status", Rule: "oneof", Message: "must be one of pending, interview, declined"},
			}))
			return job.ListFilter{}, false
		}
	}

	if raw := ctx.Query("company"); raw != "" {
		company := raw
		filter.Company = &company
	}

	if raw := ctx.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)

		if err != nil || limit < 1 {
			fail(ctx, apperrors.Validation("Invalid limit", []FieldError{
				{Field: "limit", Rule: "min", Message: "must be a positive integer"},
			}))
			return job.ListFilter{}, false
		}

		if limit > maxListLimit {
			limit = maxListLimit
		}

		filter.Limit = limit
	}

	if raw := ctx.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)

		if err != nil || offset < 0 {
			fail(ctx, apperrors.Validation("Invalid offset", []FieldError{
				{Field: "offset", Rule: "min", Message: "must be zero or a positive integer"},
			}))
			return job.ListFilter{}, false
		}

		filter.Offset = offset
	}

	return filter, true
}

// mustUserID pulls the authenticated identity off the context. An empty
// result means the guard never ran; treat it as unauthenticated rather than
// serving another user's data.
func mustUserID(ctx *gin.Context) string {
	id, ok := middlewares.UserIDFromContext(ctx)

	if !ok || id == "" {
		fail(ctx, apperrors.Authentication())
		return ""
	}

	return id
}

func fail(ctx *gin.Context, err *apperrors.Error) {
	_ = ctx.Error(err)
	ctx.Abort()
}
