package catalog

import (
	"time"

	"github.com/farellandr/namitix/internal/models"
)

// Catalog resolves event ids. It is read by both issuance (to build the
// mint call) and reconciliation (to resolve decoded ledger objects).
type Catalog interface {
	Lookup(id string) (models.Event, bool)
	List() []models.Event
}

type static struct {
	events []models.Event
	byID   map[string]int
}

// NewStatic builds a catalog over a fixed event list. Later duplicates of
// an id are ignored.
func NewStatic(events []models.Event) Catalog {
	c := &static{byID: make(map[string]int, len(events))}
	for _, e := range events {
		if _, dup := c.byID[e.ID]; dup {
			continue
		}
		c.byID[e.ID] = len(c.events)
		c.events = append(c.events, e)
	}
	return c
}

func Default() Catalog {
	return NewStatic(LaunchEvents())
}

func (c *static) Lookup(id string) (models.Event, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.Event{}, false
	}
	return c.events[i], true
}

func (c *static) List() []models.Event {
	out := make([]models.Event, len(c.events))
	copy(out, c.events)
	return out
}

func LaunchEvents() []models.Event {
	return []models.Event{
		{
			ID:       "e1",
			Title:    "Sui Basecamp 2025",
			Date:     time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC),
			Location: "Paris, France",
			Price:    50,
			ImageURL: "/images/suibasecamp-2025.png",
			BlobID:   "9kgX...v8Js",
		},
		{
			ID:       "e2",
			Title:    "Walrus Builder Day",
			Date:     time.Date(2025, 5, 15, 10, 0, 0, 0, time.UTC),
			Location: "San Francisco, CA",
			Price:    0,
			ImageURL: "/images/walrusbuilder-day.png",
			BlobID:   "3mPz...kL9x",
		},
		{
			ID:       "e3",
			Title:    "Web3 Gaming Summit",
			Date:     time.Date(2025, 6, 20, 13, 0, 0, 0, time.UTC),
			Location: "Singapore",
			Price:    120,
			ImageURL: "/images/web3gaming-summit.png",
			BlobID:   "7fR2...qW4m",
		},
		{
			ID:       "e4",
			Title:    "DeFi Night",
			Date:     time.Date(2025, 4, 12, 20, 0, 0, 0, time.UTC),
			Location: "New York, NY",
			Price:    25,
			ImageURL: "/images/definight.png",
			BlobID:   "2hL5...nB1v",
		},
	}
}
