package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edgevision-ai/provision-backend/pkg/api/dtos"
	"github.com/edgevision-ai/provision-backend/pkg/api/servers"
	"github.com/edgevision-ai/provision-backend/pkg/orchestrator"
)

type DeploymentHandler struct {
	Engine *orchestrator.Orchestrator
}

func NewDeploymentHandler(server *servers.Server) *DeploymentHandler {
	return &DeploymentHandler{Engine: server.Engine}
}

// Start godoc
// @Summary Start a deployment
// @Description Creates a fresh deployment for the project and runs the pipeline asynchronously.
// @Accept json
// @Produce json
// @Param request body dtos.StartDeploymentRequest true "Deployment configuration"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/deployments [post]
func (h *DeploymentHandler) Start(c *gin.Context) {
	var request dtos.StartDeploymentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := request.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deploymentID, err := h.Engine.Start(c.Request.Context(), request.ToConfig())
	if err != nil {
		if errors.Is(err, orchestrator.ErrDeploymentRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OK", "deploymentId": deploymentID})
}

func (h *DeploymentHandler) Resume(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}

	err := h.Engine.Resume(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, orchestrator.ErrDeploymentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, orchestrator.ErrDeploymentRunning):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OK"})
}

func (h *DeploymentHandler) Pause(c *gin.Context) {
	h.Engine.Pause()
	c.JSON(http.StatusOK, gin.H{"message": "OK"})
}

func (h *DeploymentHandler) Cancel(c *gin.Context) {
	h.Engine.Cancel()
	c.JSON(http.StatusOK, gin.H{"message": "OK"})
}

// GetCurrent reports the active deployment state, if any.
func (h *DeploymentHandler) GetCurrent(c *gin.Context) {
	state := h.Engine.State()
	if state == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active deployment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deployment": state})
}

// CheckExisting looks up a resumable deployment for the project so clients can
// offer resume instead of restarting from scratch.
func (h *DeploymentHandler) CheckExisting(c *gin.Context) {
	projectID := c.Query("projectId")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "projectId is required"})
		return
	}

	state, err := h.Engine.CheckExistingDeployment(projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if state == nil {
		c.JSON(http.StatusOK, gin.H{"exists": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": true, "deployment": state})
}

// Events streams deployment progress, log, error, and complete events over SSE
// until the client disconnects.
func (h *DeploymentHandler) Events(c *gin.Context) {
	ch := h.Engine.Events().Subscribe()
	defer h.Engine.Events().Unsubscribe(ch)

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(event.Type), event.Payload())
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
