package issuance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/farellandr/namitix/internal/audit"
	"github.com/farellandr/namitix/internal/catalog"
	"github.com/farellandr/namitix/internal/clock"
	"github.com/farellandr/namitix/internal/models"
	"github.com/farellandr/namitix/internal/sui"
	"github.com/farellandr/namitix/internal/tickets"
	"github.com/sirupsen/logrus"
)

var (
	ErrWalletNotConnected  = errors.New("wallet not connected")
	ErrEventNotFound       = errors.New("event not found")
	ErrTransactionFailed   = errors.New("ticket transaction failed")
	ErrMetadataStoreFailed = errors.New("ticket metadata store failed")
)

const (
	mintModule   = "namitix_ticket"
	mintFunction = "mint_ticket"

	defaultCompleteHold = 1500 * time.Millisecond
)

// Ledger submits the mint transaction.
type Ledger interface {
	SubmitMoveCall(ctx context.Context, sender string, call sui.MoveCall) (string, error)
}

// MetadataStore writes ticket metadata blobs.
type MetadataStore interface {
	PutMetadata(ctx context.Context, metadata models.TicketMetadata) (string, error)
}

// Result describes a purchase that minted a ticket. StoreErr is set when
// the metadata write failed; the ticket then has no BlobID. Detached is
// set when the wallet changed while the purchase was in flight and the
// ticket was left out of the session list.
type Result struct {
	Ticket   models.Ticket
	StoreErr error
	Detached bool
}

// Orchestrator runs ticket issuance: mint on the ledger, then a
// best-effort metadata write, then append to the session list.
type Orchestrator struct {
	ledger       Ledger
	store        MetadataStore
	catalog      catalog.Catalog
	recorder     audit.Recorder
	clock        clock.Clock
	logger       *logrus.Logger
	packageID    string
	completeHold time.Duration
	ids          idGenerator
}

type Option func(*Orchestrator)

// WithCompleteHold sets how long the complete phase stays visible before
// the session returns to idle.
func WithCompleteHold(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.completeHold = d
		}
	}
}

func WithRecorder(r audit.Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

func NewOrchestrator(ledger Ledger, store MetadataStore, events catalog.Catalog, packageID string, clk clock.Clock, logger *logrus.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		ledger:       ledger,
		store:        store,
		catalog:      events,
		recorder:     audit.NewLogRecorder(logger),
		clock:        clk,
		logger:       logger,
		packageID:    packageID,
		completeHold: defaultCompleteHold,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// MintCall builds the ledger call for event: the event id as bytes and an
// empty blob id, which is not known until after the mint.
func (o *Orchestrator) MintCall(event models.Event) sui.MoveCall {
	return sui.MoveCall{
		Package:  o.packageID,
		Module:   mintModule,
		Function: mintFunction,
		Arguments: []any{
			sui.Bytes([]byte(event.ID)),
			sui.Bytes(nil),
		},
	}
}

// Purchase issues a ticket for eventID to the session's connected wallet.
func (o *Orchestrator) Purchase(ctx context.Context, session *tickets.Session, eventID string) (Result, error) {
	owner, generation := session.Identity()
	if owner == "" {
		session.RequireWallet()
		return Result{}, ErrWalletNotConnected
	}

	event, ok := o.catalog.Lookup(eventID)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	session.DismissWalletNotice()

	log := o.logger.WithContext(ctx).WithFields(logrus.Fields{
		"session":  session.ID(),
		"event_id": event.ID,
		"owner":    owner,
	})

	attempt := session.BeginAttempt()
	session.SetPhase(attempt, tickets.PhaseSubmittingTransaction)

	digest, err := o.ledger.SubmitMoveCall(ctx, owner, o.MintCall(event))
	if err != nil {
		log.WithError(err).Error("ticket transaction failed")
		o.recorder.Record(ctx, models.Issuance{
			EventID:      event.ID,
			OwnerAddress: owner,
			TxDigest:     digest,
			Outcome:      models.OutcomeTransactionFailed,
			Failure:      err.Error(),
		})
		session.SetPhase(attempt, tickets.PhaseIdle)
		return Result{}, fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}

	session.SetPhase(attempt, tickets.PhaseStoringMetadata)

	now := o.clock.Now()
	ticket := models.Ticket{
		ID:           o.ids.next(event.ID, now),
		EventID:      event.ID,
		PurchaseDate: models.FormatPurchaseDate(now),
		OwnerAddress: owner,
		TxDigest:     digest,
	}
	log = log.WithFields(logrus.Fields{"ticket_id": ticket.ID, "tx_digest": digest})

	var result Result
	blobID, err := o.store.PutMetadata(ctx, models.ToMetadata(ticket))
	if err != nil {
		log.WithError(err).Error("ticket metadata store failed")
		result.StoreErr = fmt.Errorf("%w: %w", ErrMetadataStoreFailed, err)
	} else {
		ticket.BlobID = blobID
	}
	result.Ticket = ticket

	if !session.AppendFor(generation, ticket) {
		if _, current := session.Identity(); current != generation {
			result.Detached = true
			log.Warn("wallet changed during purchase, ticket not added to session list")
		} else {
			log.Warn("ticket id already in session list")
		}
	}
	session.SetPhase(attempt, tickets.PhaseComplete)

	record := models.Issuance{
		EventID:      event.ID,
		OwnerAddress: owner,
		TicketID:     ticket.ID,
		TxDigest:     digest,
		BlobID:       ticket.BlobID,
		Outcome:      models.OutcomeIssued,
	}
	if result.StoreErr != nil {
		record.Outcome = models.OutcomeMetadataStoreFailed
		record.Failure = result.StoreErr.Error()
	}
	o.recorder.Record(ctx, record)

	o.clock.AfterFunc(o.completeHold, func() {
		session.FinishAttempt(attempt)
	})

	log.WithField("blob_id", ticket.BlobID).Info("ticket issued")
	return result, nil
}
