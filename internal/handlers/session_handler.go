package handlers

import (
	"net/http"

	"github.com/farellandr/namitix/internal/helpers"
	"github.com/farellandr/namitix/internal/middleware"
	"github.com/farellandr/namitix/internal/tickets"
	"github.com/gin-gonic/gin"
)

type ConnectWalletRequest struct {
	Address string `json:"address" binding:"required"`
}

type SetViewRequest struct {
	View tickets.View `json:"view" binding:"required,oneof=browse wallet"`
}

func CreateSession(c *gin.Context) {
	svc := middleware.GetServices(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "services_unavailable", "Services not configured.")
		return
	}

	session, expiresAt := svc.Registry.Create()

	token, err := middleware.NewSessionToken(svc.SessionSecret, session.ID(), expiresAt)
	if err != nil {
		svc.Registry.Delete(session.ID())
		svc.Logger.WithContext(c.Request.Context()).WithError(err).Error("failed to sign session token")
		helpers.RespondWithError(c, http.StatusInternalServerError, "token_failed", "Failed to generate token.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"expires_in": int(svc.Registry.TTL().Seconds()),
		"session":    session.State(),
	})
}

func GetSession(c *gin.Context) {
	session := middleware.GetSession(c)
	c.JSON(http.StatusOK, session.State())
}

// ConnectWallet sets or switches the session identity and reconciles the
// ticket list against the ledger. A failed reconciliation keeps the list
// and is reported as a warning.
func ConnectWallet(c *gin.Context) {
	var req ConnectWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "invalid_input", "Invalid input. Please check your fields.")
		return
	}

	address, err := helpers.ParseSuiAddress(req.Address)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "invalid_address", "Invalid wallet address.")
		return
	}

	session := middleware.GetSession(c)
	session.SetIdentity(address)
	respondReconciled(c, session)
}

func DisconnectWallet(c *gin.Context) {
	session := middleware.GetSession(c)
	session.SetIdentity("")
	respondReconciled(c, session)
}

func ReconcileSession(c *gin.Context) {
	svc := middleware.GetServices(c)
	session := middleware.GetSession(c)

	report, err := svc.Loader.Reconcile(c.Request.Context(), session)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadGateway, "reconcile_failed", "Failed to load on-chain tickets.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session":   session.State(),
		"reconcile": report,
	})
}

func SetView(c *gin.Context) {
	var req SetViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "invalid_input", "View must be browse or wallet.")
		return
	}

	session := middleware.GetSession(c)
	session.SetView(req.View)
	c.JSON(http.StatusOK, session.State())
}

func DismissWalletNotice(c *gin.Context) {
	session := middleware.GetSession(c)
	session.DismissWalletNotice()
	c.JSON(http.StatusOK, session.State())
}

func ListWallets(c *gin.Context) {
	svc := middleware.GetServices(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "services_unavailable", "Services not configured.")
		return
	}
	wallets := svc.Wallets
	if wallets == nil {
		wallets = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"wallets": wallets})
}

func respondReconciled(c *gin.Context, session *tickets.Session) {
	svc := middleware.GetServices(c)

	report, err := svc.Loader.Reconcile(c.Request.Context(), session)
	body := gin.H{
		"session":   session.State(),
		"reconcile": report,
	}
	if err != nil {
		body["warning"] = "reconcile_failed"
	}
	c.JSON(http.StatusOK, body)
}
