package reconcile

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/farellandr/namitix/internal/catalog"
	"github.com/farellandr/namitix/internal/clock"
	"github.com/farellandr/namitix/internal/models"
	"github.com/farellandr/namitix/internal/sui"
	"github.com/farellandr/namitix/internal/tickets"
	"github.com/sirupsen/logrus"
)

var ErrQueryFailed = errors.New("owned ticket query failed")

const (
	ticketModule = "namitix_ticket"
	ticketStruct = "Ticket"
	moveObject   = "moveObject"
	eventIDField = "event_id"
)

// Ledger lists the objects an address owns.
type Ledger interface {
	OwnedObjects(ctx context.Context, owner, structType string) ([]sui.Object, error)
}

// Report summarizes one reconciliation round.
type Report struct {
	Owner   string `json:"owner,omitempty"`
	Loaded  int    `json:"loaded"`
	Skipped int    `json:"skipped"`
	// Applied is false when the identity changed while the query ran and
	// the result was discarded.
	Applied bool `json:"applied"`
}

// Loader rebuilds a session's ticket list from the tickets the connected
// wallet owns on the ledger.
type Loader struct {
	ledger     Ledger
	catalog    catalog.Catalog
	clock      clock.Clock
	logger     *logrus.Logger
	structType string
}

func NewLoader(ledger Ledger, events catalog.Catalog, packageID string, clk clock.Clock, logger *logrus.Logger) *Loader {
	return &Loader{
		ledger:     ledger,
		catalog:    events,
		clock:      clk,
		logger:     logger,
		structType: fmt.Sprintf("%s::%s::%s", packageID, ticketModule, ticketStruct),
	}
}

func (l *Loader) StructType() string {
	return l.structType
}

// Reconcile runs after every identity change. Without an identity the
// session list is cleared. Otherwise the owned tickets are loaded and
// merged into the list, unless the identity changed again meanwhile. A
// failed query leaves the list untouched.
func (l *Loader) Reconcile(ctx context.Context, session *tickets.Session) (Report, error) {
	owner, generation := session.Identity()
	log := l.logger.WithContext(ctx).WithFields(logrus.Fields{
		"session":    session.ID(),
		"owner":      owner,
		"generation": generation,
	})

	if owner == "" {
		report := Report{Applied: session.Reset(generation)}
		log.WithField("applied", report.Applied).Debug("session tickets cleared")
		return report, nil
	}

	objects, err := l.ledger.OwnedObjects(ctx, owner, l.structType)
	if err != nil {
		log.WithError(err).Error("failed to load on-chain tickets")
		return Report{Owner: owner}, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	loaded, skipped := l.toTickets(log, owner, objects)
	report := Report{
		Owner:   owner,
		Loaded:  len(loaded),
		Skipped: skipped,
		Applied: session.ApplyLoaded(generation, loaded),
	}

	entry := log.WithFields(logrus.Fields{
		"loaded":  report.Loaded,
		"skipped": report.Skipped,
	})
	if !report.Applied {
		entry.Info("identity changed during reconciliation, result discarded")
		return report, nil
	}
	entry.Info("on-chain tickets reconciled")
	return report, nil
}

func (l *Loader) toTickets(log *logrus.Entry, owner string, objects []sui.Object) ([]models.Ticket, int) {
	now := models.FormatPurchaseDate(l.clock.Now())

	var (
		out     []models.Ticket
		skipped int
	)
	for _, obj := range objects {
		eventID, err := decodeEventID(obj)
		if err != nil {
			log.WithError(err).WithField("object_id", obj.ID).Warn("skipping undecodable ticket object")
			skipped++
			continue
		}
		if _, ok := l.catalog.Lookup(eventID); !ok {
			log.WithFields(logrus.Fields{"object_id": obj.ID, "event_id": eventID}).Debug("skipping ticket for unknown event")
			skipped++
			continue
		}

		id := sui.ObjectUID(obj.Fields)
		if id == "" {
			id = obj.ID
		}
		out = append(out, models.Ticket{
			ID:                      id,
			EventID:                 eventID,
			PurchaseDate:            now,
			PurchaseDateApproximate: true,
			OwnerAddress:            owner,
		})
	}
	return out, skipped
}

func decodeEventID(obj sui.Object) (string, error) {
	if obj.Error != "" {
		return "", fmt.Errorf("%w: object error %s", sui.ErrDecode, obj.Error)
	}
	if obj.DataType != moveObject {
		return "", fmt.Errorf("%w: data type %q is not a move object", sui.ErrDecode, obj.DataType)
	}
	raw, err := sui.DecodeByteVector(obj.Fields, eventIDField)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: event id is not valid UTF-8", sui.ErrDecode)
	}
	return string(raw), nil
}
