package handlers

import (
	"net/http"

	"github.com/farellandr/namitix/internal/audit"
	"github.com/farellandr/namitix/internal/helpers"
	"github.com/farellandr/namitix/internal/middleware"
	"github.com/gin-gonic/gin"
)

func ListIssuances(c *gin.Context) {
	svc := middleware.GetServices(c)
	session := middleware.GetSession(c)

	owner, _ := session.Identity()
	if owner == "" {
		helpers.RespondWithError(c, http.StatusConflict, "wallet_not_connected", "Connect a wallet to view its issuance history.")
		return
	}

	db := middleware.GetDatabase(c)
	if db == nil {
		helpers.RespondWithError(c, http.StatusServiceUnavailable, "audit_unavailable", "Database connection not found.")
		return
	}

	rows, err := audit.NewRepository(db, svc.Logger).ListByOwner(c.Request.Context(), owner)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "audit_failed", "Error retrieving issuance history.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"issuances": rows,
		"total":     len(rows),
	})
}
