package api

import (
	"alcyxob/dating-app/internal/domain"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker is the storage health probe as seen by the API.
type HealthChecker interface {
	Snapshot() domain.StorageHealth
	Check(ctx context.Context, ownerID string) (domain.StorageHealth, bool)
}

// refreshTimeout bounds an on-demand probe. The probe is detached from the
// request so a disconnecting client cannot publish a failed verdict.
const refreshTimeout = 30 * time.Second

type HealthHandler struct {
	prober HealthChecker
}

func NewHealthHandler(prober HealthChecker) *HealthHandler {
	return &HealthHandler{prober: prober}
}

type StorageHealthResponse struct {
	domain.StorageHealth
	Checked   bool `json:"checked"`
	Refreshed bool `json:"refreshed"`
}

// StorageHealth godoc
// @Summary Storage health snapshot
// @Description Returns the latest probe result. With refresh=true a probe runs first unless one is already in flight.
// @Tags Storage
// @Produce json
// @Security BearerAuth
// @Param refresh query bool false "Run a probe now"
// @Success 200 {object} StorageHealthResponse
// @Router /storage/health [get]
func (h *HealthHandler) StorageHealth(c *gin.Context) {
	snapshot, refreshed := h.prober.Snapshot(), false
	if c.Query("refresh") == "true" {
		ownerID, _ := getUserIDFromContext(c)
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), refreshTimeout)
		defer cancel()
		snapshot, refreshed = h.prober.Check(ctx, ownerID)
	}
	c.JSON(http.StatusOK, StorageHealthResponse{
		StorageHealth: snapshot,
		Checked:       snapshot.Checked(),
		Refreshed:     refreshed,
	})
}
