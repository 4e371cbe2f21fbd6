package handlers

import (
	"errors"
	"net/http"

	"github.com/farellandr/namitix/internal/helpers"
	"github.com/farellandr/namitix/internal/issuance"
	"github.com/farellandr/namitix/internal/middleware"
	"github.com/gin-gonic/gin"
)

// PurchaseTicket mints a ticket for the event to the session wallet. A
// failed metadata write or a wallet switch mid-purchase still returns 201
// with a warning.
func PurchaseTicket(c *gin.Context) {
	svc := middleware.GetServices(c)
	session := middleware.GetSession(c)

	result, err := svc.Issuer.Purchase(c.Request.Context(), session, c.Param("id"))
	switch {
	case errors.Is(err, issuance.ErrEventNotFound):
		helpers.RespondWithError(c, http.StatusNotFound, "event_not_found", "Event not found.")
		return
	case errors.Is(err, issuance.ErrWalletNotConnected):
		helpers.RespondWithError(c, http.StatusConflict, "wallet_not_connected", "Connect a wallet before purchasing.")
		return
	case errors.Is(err, issuance.ErrTransactionFailed):
		helpers.RespondWithError(c, http.StatusBadGateway, "transaction_failed", "Ticket transaction failed.")
		return
	case err != nil:
		helpers.RespondWithError(c, http.StatusInternalServerError, "purchase_failed", "Failed to purchase ticket.")
		return
	}

	body := gin.H{
		"message": "Ticket purchased successfully.",
		"ticket":  result.Ticket,
		"session": session.State(),
	}
	switch {
	case result.Detached:
		body["warning"] = "wallet_changed"
	case result.StoreErr != nil:
		body["warning"] = "metadata_store_failed"
	}
	c.JSON(http.StatusCreated, body)
}
