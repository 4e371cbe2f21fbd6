package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/farellandr/namitix/internal/helpers"
	"github.com/farellandr/namitix/internal/middleware"
	"github.com/farellandr/namitix/internal/models"
	"github.com/farellandr/namitix/internal/walrus"
	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 300
	minQRSize     = 64
	maxQRSize     = 1024
)

type TicketView struct {
	models.Ticket
	Owner   string        `json:"owner"`
	Event   *models.Event `json:"event,omitempty"`
	BlobURL string        `json:"blobUrl,omitempty"`
}

func ListTickets(c *gin.Context) {
	session := middleware.GetSession(c)

	list := session.Tickets()
	views := make([]TicketView, 0, len(list))
	for _, t := range list {
		views = append(views, ticketView(c, t))
	}

	c.JSON(http.StatusOK, gin.H{
		"tickets": views,
		"total":   len(views),
		"phase":   session.Phase(),
	})
}

// RevealTicket checks the ticket's stored metadata, when it has any,
// before handing out the revealed view. Tickets without a blob are
// revealed without verification.
func RevealTicket(c *gin.Context) {
	svc := middleware.GetServices(c)
	session := middleware.GetSession(c)

	ticket, ok := session.Ticket(c.Param("id"))
	if !ok {
		helpers.RespondWithError(c, http.StatusNotFound, "ticket_not_found", "Ticket not found.")
		return
	}

	verified := false
	if ticket.BlobID != "" {
		metadata, err := svc.Metadata.GetMetadata(c.Request.Context(), ticket.BlobID)
		if err != nil {
			svc.Logger.WithContext(c.Request.Context()).WithError(err).
				WithField("ticket_id", ticket.ID).Warn("ticket metadata verification failed")
			respondBlobError(c, err)
			return
		}
		if !metadata.Matches(ticket) {
			helpers.RespondWithError(c, http.StatusConflict, "metadata_mismatch", "Stored metadata does not match the ticket.")
			return
		}
		verified = true
	}

	ticket.IsRevealed = true
	c.JSON(http.StatusOK, gin.H{
		"ticket":   ticketView(c, ticket),
		"verified": verified,
	})
}

func TicketQR(c *gin.Context) {
	session := middleware.GetSession(c)

	ticket, ok := session.Ticket(c.Param("id"))
	if !ok {
		helpers.RespondWithError(c, http.StatusNotFound, "ticket_not_found", "Ticket not found.")
		return
	}

	size := defaultQRSize
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < minQRSize || n > maxQRSize {
			helpers.RespondWithError(c, http.StatusBadRequest, "invalid_size", "QR size must be between 64 and 1024.")
			return
		}
		size = n
	}

	png, err := qrcode.Encode(ticket.ID, qrcode.Medium, size)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "qr_failed", "Failed to render QR code.")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func ticketView(c *gin.Context, t models.Ticket) TicketView {
	svc := middleware.GetServices(c)
	view := TicketView{Ticket: t, Owner: helpers.ShortAddress(t.OwnerAddress)}
	if event, ok := svc.Catalog.Lookup(t.EventID); ok {
		view.Event = &event
	}
	if t.BlobID != "" {
		view.BlobURL = svc.Blobs.BlobURL(t.BlobID)
	}
	return view
}

func respondBlobError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, walrus.ErrBlobNotFound):
		helpers.RespondWithError(c, http.StatusNotFound, "blob_not_found", "Blob not found.")
	case errors.Is(err, walrus.ErrBlobDecode):
		helpers.RespondWithError(c, http.StatusBadGateway, "blob_decode_failed", "Blob is not valid ticket metadata.")
	default:
		helpers.RespondWithError(c, http.StatusBadGateway, "blob_read_failed", "Failed to read blob.")
	}
}
