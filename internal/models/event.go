package models

import "time"

// Event is a catalog entry a ticket can be issued for. Events are
// read-only to the issuance core.
type Event struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Location string    `json:"location"`
	Price    int       `json:"price"`
	ImageURL string    `json:"imageUrl"`
	BlobID   string    `json:"blobId"`
}
