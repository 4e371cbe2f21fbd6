package handlers

import (
	"net/http"

	"github.com/farellandr/namitix/internal/helpers"
	"github.com/farellandr/namitix/internal/middleware"
	"github.com/gin-gonic/gin"
)

func ListEvents(c *gin.Context) {
	svc := middleware.GetServices(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "services_unavailable", "Services not configured.")
		return
	}

	events := svc.Catalog.List()
	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  len(events),
	})
}

func GetEvent(c *gin.Context) {
	svc := middleware.GetServices(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "services_unavailable", "Services not configured.")
		return
	}

	event, ok := svc.Catalog.Lookup(c.Param("id"))
	if !ok {
		helpers.RespondWithError(c, http.StatusNotFound, "event_not_found", "Event not found.")
		return
	}

	c.JSON(http.StatusOK, event)
}
