package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/trajectory-explorer/internal/models"
	"github.com/jengzang/trajectory-explorer/internal/repository"
	"github.com/jengzang/trajectory-explorer/internal/service"
	"github.com/jengzang/trajectory-explorer/pkg/response"
)

// TrajectoryHandler handles HTTP requests for trajectory selection
type TrajectoryHandler struct {
	service *service.TrajectoryService
}

// NewTrajectoryHandler creates a new trajectory handler
func NewTrajectoryHandler(service *service.TrajectoryService) *TrajectoryHandler {
	return &TrajectoryHandler{service: service}
}

// GetFilters handles GET /filters
func (h *TrajectoryHandler) GetFilters(c *gin.Context) {
	catalog, err := h.service.FilterCatalog(c.Request.Context())
	if err != nil {
		response.InternalError(c, "Failed to load filter fields", err)
		return
	}
	response.Success(c, catalog)
}

// SelectTrajectories handles POST /visualizations/trajectory_selection/:targetBodyId
func (h *TrajectoryHandler) SelectTrajectories(c *gin.Context) {
	targetBody, err := strconv.Atoi(c.Param("targetBodyId"))
	if err != nil {
		response.BadRequest(c, "Invalid targetBodyId parameter", err)
		return
	}

	var q models.Query
	if err := c.ShouldBindJSON(&q); err != nil {
		response.BadRequest(c, "Invalid query body", err)
		return
	}
	q.TargetBody = targetBody

	records, err := h.service.SelectTrajectories(c.Request.Context(), q)
	if err != nil {
		h.fail(c, "Failed to select trajectories", err)
		return
	}
	response.Success(c, records)
}

// GetEntries handles GET /trajectories/:id/entries
func (h *TrajectoryHandler) GetEntries(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid trajectory id", err)
		return
	}

	records, err := h.service.Entries(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Failed to get entries", err)
		return
	}
	response.Success(c, records)
}

// GetArcs handles POST /visualizations/entry_arcs/:targetBodyId
func (h *TrajectoryHandler) GetArcs(c *gin.Context) {
	targetBody, err := strconv.Atoi(c.Param("targetBodyId"))
	if err != nil {
		response.BadRequest(c, "Invalid targetBodyId parameter", err)
		return
	}

	var req models.ArcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid arc request body", err)
		return
	}

	arcs, err := h.service.Arcs(c.Request.Context(), targetBody, req.EntryIDs)
	if err != nil {
		h.fail(c, "Failed to get arcs", err)
		return
	}
	response.Success(c, arcs)
}

func (h *TrajectoryHandler) fail(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, repository.ErrUnknownField), errors.Is(err, repository.ErrInvalidConstraint):
		response.BadRequest(c, err.Error(), err)
	case errors.Is(err, repository.ErrNotFound):
		response.NotFound(c, err.Error(), err)
	default:
		response.InternalError(c, message, err)
	}
}
