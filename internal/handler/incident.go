package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Pauline-WN/AjaliApp/internal/middleware"
	"github.com/Pauline-WN/AjaliApp/internal/models"
	"github.com/Pauline-WN/AjaliApp/internal/service"
)

type IncidentHandler interface {
	GetAllIncidents(c *gin.Context)
	CreateIncident(c *gin.Context)
	GetIncidentByID(c *gin.Context)
	UpdateIncident(c *gin.Context)
	DeleteIncident(c *gin.Context)
}

type incidentHandler struct {
	incidents service.IncidentService
	logger    *zap.Logger
}

func NewIncidentHandler(incidents service.IncidentService, logger *zap.Logger) IncidentHandler {
	return &incidentHandler{incidents: incidents, logger: logger}
}

// GetAllIncidents handles GET /incidents
func (h *incidentHandler) GetAllIncidents(c *gin.Context) {
	incidents, err := h.incidents.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve incidents")
		return
	}
	c.JSON(http.StatusOK, incidents)
}

// CreateIncident handles POST /incidents
func (h *incidentHandler) CreateIncident(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not logged in"})
		return
	}

	var input models.CreateIncidentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Debug("Failed to bind JSON for incident", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	id, err := h.incidents.Create(c.Request.Context(), identity.UserID, input)
	if err != nil {
		respondError(c, h.logger, err, "Error creating incident")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Incident created successfully", "id": id})
}

// GetIncidentByID handles GET /incidents/:id
func (h *incidentHandler) GetIncidentByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	incident, err := h.incidents.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve incident")
		return
	}
	c.JSON(http.StatusOK, incident)
}

// UpdateIncident handles PUT /incidents/:id. Only the fields present in the
// body are changed.
func (h *incidentHandler) UpdateIncident(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not logged in"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var patch models.IncidentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.logger.Debug("Failed to bind JSON for incident update", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	incident, err := h.incidents.Update(c.Request.Context(), identity.UserID, id, patch)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update incident")
		return
	}
	c.JSON(http.StatusOK, incident)
}

// DeleteIncident handles DELETE /incidents/:id
func (h *incidentHandler) DeleteIncident(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not logged in"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.incidents.Delete(c.Request.Context(), identity.UserID, id); err != nil {
		respondError(c, h.logger, err, "Failed to delete incident")
		return
	}
	c.Status(http.StatusNoContent)
}
