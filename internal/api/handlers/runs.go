package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/orderrecon/internal/api/dto"
	"github.com/eshaffer321/orderrecon/internal/application/service"
)

const defaultRunLimit = 20

// RunsHandler handles run history requests.
type RunsHandler struct {
	svc *service.ReconcileService
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(svc *service.ReconcileService) *RunsHandler {
	return &RunsHandler{svc: svc}
}

// List returns recent runs.
// Query params: limit (default 20)
func (h *RunsHandler) List(c *gin.Context) {
	limit := ParseIntQuery(c, "limit", defaultRunLimit)
	if limit <= 0 {
		limit = defaultRunLimit
	}

	runs, err := h.svc.ListRuns(limit)
	if err != nil {
		WriteError(c, err)
		return
	}

	resp := dto.RunListResponse{Runs: make([]dto.RunResponse, 0, len(runs))}
	for i := range runs {
		resp.Runs = append(resp.Runs, dto.ToRunResponse(&runs[i]))
	}
	resp.Count = len(resp.Runs)
	c.JSON(http.StatusOK, resp)
}

// Get returns one run summary.
func (h *RunsHandler) Get(c *gin.Context) {
	run, err := h.svc.GetRun(c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToRunResponse(run))
}

// Outcome returns the cached outcome of a recent run.
func (h *RunsHandler) Outcome(c *gin.Context) {
	id := c.Param("id")
	out, err := h.svc.Outcome(id)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ReconcileResponse{RunID: id, Outcome: out})
}
