package models

import "time"

// PurchaseDateLayout is the ISO-8601 form used for ticket purchase dates.
const PurchaseDateLayout = "2006-01-02T15:04:05.000Z07:00"

func FormatPurchaseDate(t time.Time) string {
	return t.UTC().Format(PurchaseDateLayout)
}

// Ticket is the session view of an issued ticket. TxDigest and BlobID are
// only known for tickets issued during the current session; the ledger
// object does not carry them.
type Ticket struct {
	ID           string `json:"id"`
	EventID      string `json:"eventId"`
	PurchaseDate string `json:"purchaseDate"`
	// PurchaseDateApproximate marks tickets loaded from the ledger, whose
	// PurchaseDate is the reconciliation time rather than the mint time.
	PurchaseDateApproximate bool   `json:"purchaseDateApproximate,omitempty"`
	OwnerAddress            string `json:"ownerAddress"`
	IsRevealed              bool   `json:"isRevealed"`
	TxDigest                string `json:"txDigest,omitempty"`
	BlobID                  string `json:"blobId,omitempty"`
}

// TicketMetadata is the JSON document stored in the blob store for a ticket.
type TicketMetadata struct {
	EventID      string `json:"eventId"`
	OwnerAddress string `json:"ownerAddress"`
	PurchaseDate string `json:"purchaseDate"`
	TxDigest     string `json:"txDigest,omitempty"`
	TicketID     string `json:"ticketId"`
}

func ToMetadata(ticket Ticket) TicketMetadata {
	return TicketMetadata{
		EventID:      ticket.EventID,
		OwnerAddress: ticket.OwnerAddress,
		PurchaseDate: ticket.PurchaseDate,
		TxDigest:     ticket.TxDigest,
		TicketID:     ticket.ID,
	}
}

// Matches reports whether the stored metadata describes ticket.
func (m TicketMetadata) Matches(ticket Ticket) bool {
	return m.TicketID == ticket.ID &&
		m.EventID == ticket.EventID &&
		m.OwnerAddress == ticket.OwnerAddress
}
