package issuance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/farellandr/namitix/internal/catalog"
	"github.com/farellandr/namitix/internal/clock"
	"github.com/farellandr/namitix/internal/models"
	"github.com/farellandr/namitix/internal/sui"
	"github.com/farellandr/namitix/internal/tickets"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPackage = "0xPKG"

var purchaseTime = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

type fakeLedger struct {
	mu      sync.Mutex
	digest  string
	err     error
	calls   []sui.MoveCall
	senders []string
	onCall  func()
}

func (l *fakeLedger) SubmitMoveCall(_ context.Context, sender string, call sui.MoveCall) (string, error) {
	l.mu.Lock()
	l.calls = append(l.calls, call)
	l.senders = append(l.senders, sender)
	l.mu.Unlock()
	if l.onCall != nil {
		l.onCall()
	}
	if l.err != nil {
		return "", l.err
	}
	return l.digest, nil
}

type fakeStore struct {
	mu     sync.Mutex
	blobID string
	err    error
	puts   []models.TicketMetadata
	onPut  func()
}

func (s *fakeStore) PutMetadata(_ context.Context, metadata models.TicketMetadata) (string, error) {
	s.mu.Lock()
	s.puts = append(s.puts, metadata)
	s.mu.Unlock()
	if s.onPut != nil {
		s.onPut()
	}
	if s.err != nil {
		return "", s.err
	}
	return s.blobID, nil
}

type fakeRecorder struct {
	mu   sync.Mutex
	rows []models.Issuance
}

func (r *fakeRecorder) Record(_ context.Context, issuance models.Issuance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, issuance)
}

type fixture struct {
	ledger   *fakeLedger
	store    *fakeStore
	recorder *fakeRecorder
	clock    *clock.Fake
	orch     *Orchestrator
	session  *tickets.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	f := &fixture{
		ledger:   &fakeLedger{digest: "0xTX1"},
		store:    &fakeStore{blobID: "B1"},
		recorder: &fakeRecorder{},
		clock:    clock.NewFake(purchaseTime),
		session:  tickets.NewSession("s1"),
	}
	f.orch = NewOrchestrator(f.ledger, f.store, catalog.Default(), testPackage, f.clock, logger,
		WithRecorder(f.recorder))
	return f
}

func TestPurchase_IssuesTicket(t *testing.T) {
	f := newFixture(t)
	f.session.SetIdentity("0xWALLET1")

	res, err := f.orch.Purchase(context.Background(), f.session, "e2")
	require.NoError(t, err)
	assert.NoError(t, res.StoreErr)

	want := models.Ticket{
		ID:           "e2-MA571OG0",
		EventID:      "e2",
		PurchaseDate: "2025-05-01T10:00:00.000Z",
		OwnerAddress: "0xWALLET1",
		TxDigest:     "0xTX1",
		BlobID:       "B1",
	}
	assert.Equal(t, want, res.Ticket)
	assert.Equal(t, []models.Ticket{want}, f.session.Tickets())

	require.Len(t, f.ledger.calls, 1)
	assert.Equal(t, []string{"0xWALLET1"}, f.ledger.senders)
	call := f.ledger.calls[0]
	assert.Equal(t, "0xPKG::namitix_ticket::mint_ticket", call.Target())
	assert.Equal(t, []any{sui.Bytes([]byte("e2")), sui.Bytes(nil)}, call.Arguments)

	require.Len(t, f.store.puts, 1)
	assert.Equal(t, models.TicketMetadata{
		EventID:      "e2",
		OwnerAddress: "0xWALLET1",
		PurchaseDate: "2025-05-01T10:00:00.000Z",
		TxDigest:     "0xTX1",
		TicketID:     "e2-MA571OG0",
	}, f.store.puts[0])

	require.Len(t, f.recorder.rows, 1)
	assert.Equal(t, models.OutcomeIssued, f.recorder.rows[0].Outcome)
	assert.Equal(t, "B1", f.recorder.rows[0].BlobID)
}

func TestPurchase_PhaseProgression(t *testing.T) {
	f := newFixture(t)
	f.session.SetIdentity("0xWALLET1")

	var seen []tickets.Phase
	f.ledger.onCall = func() { seen = append(seen, f.session.Phase()) }
	f.store.onPut = func() { seen = append(seen, f.session.Phase()) }

	_, err := f.orch.Purchase(context.Background(), f.session, "e1")
	require.NoError(t, err)

	assert.Equal(t, []tickets.Phase{tickets.PhaseSubmittingTransaction, tickets.PhaseStoringMetadata}, seen)
	assert.Equal(t, tickets.PhaseComplete, f.session.Phase())
	assert.Equal(t, 1, f.clock.Pending())

	f.clock.Advance(1499 * time.Millisecond)
	assert.Equal(t, tickets.PhaseComplete, f.session.Phase())

	f.clock.Advance(time.Millisecond)
	state := f.session.State()
	assert.Equal(t, tickets.PhaseIdle, state.Phase)
	assert.Equal(t, tickets.ViewWallet, state.View)
}

func TestPurchase_WithoutWallet(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Purchase(context.Background(), f.session, "e2")
	require.ErrorIs(t, err, ErrWalletNotConnected)

	state := f.session.State()
	assert.True(t, state.WalletNotice)
	assert.Equal(t, tickets.PhaseIdle, state.Phase)
	assert.Empty(t, f.ledger.calls)
	assert.Empty(t, f.store.puts)
	assert.Empty(t, f.recorder.rows)
}

func TestPurchase_UnknownEvent(t *testing.T) {
	f := newFixture(t)
	f.session.SetIdentity("0xWALLET1")

	_, err := f.orch.Purchase(context.Background(), f.session, "e9")
	require.ErrorIs(t, err, ErrEventNotFound)
	assert.Empty(t, f.ledger.calls)
	assert.Empty(t, f.session.Tickets())
}

func TestPurchase_LedgerFailure(t *testing.T) {
	f := newFixture(t)
	f.session.SetIdentity("0xWALLET1")
	existing := models.Ticket{ID: "0xOBJ1", EventID: "e1", OwnerAddress: "0xWALLET1"}
	require.True(t, f.session.Append(existing))

	f.ledger.err = errors.New("user rejected")
	_, err := f.orch.Purchase(context.Background(), f.session, "e2")

	require.ErrorIs(t, err, ErrTransactionFailed)
	assert.ErrorContains(t, err, "user rejected")
	assert.Equal(t, []models.Ticket{existing}, f.session.Tickets())
	assert.Empty(t, f.store.puts)
	assert.Equal(t, tickets.PhaseIdle, f.session.Phase())
	assert.Zero(t, f.clock.Pending())

	require.Len(t, f.recorder.rows, 1)
	assert.Equal(t, models.OutcomeTransactionFailed, f.recorder.rows[0].Outcome)
	assert.Equal(t, "user rejected", f.recorder.rows[0].Failure)
}

func TestPurchase_MetadataStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.session.SetIdentity("0xWALLET1")
	f.store.err = errors.New("publisher unavailable")

	res, err := f.orch.Purchase(context.Background(), f.session, "e2")
	require.NoError(t, err)
	require.ErrorIs(t, res.StoreErr, ErrMetadataStoreFailed)

	assert.Equal(t, "0xTX1", res.Ticket.TxDigest)
	assert.Empty(t, res.Ticket.BlobID)

	list := f.session.Tickets()
	require.Len(t, list, 1)
	assert.Equal(t, "0xTX1", list[0].TxDigest)
	assert.Empty(t, list[0].BlobID)
	assert.Equal(t, tickets.PhaseComplete, f.session.Phase())

	require.Len(t, f.recorder.rows, 1)
	assert.Equal(t, models.OutcomeMetadataStoreFailed, f.recorder.rows[0].Outcome)
}

func TestPurchase_SameMillisecondGetsDistinctIDs(t *testing.T) {
	f := newFixture(t)
	f.session.SetIdentity("0xWALLET1")

	first, err := f.orch.Purchase(context.Background(), f.session, "e2")
	require.NoError(t, err)
	second, err := f.orch.Purchase(context.Background(), f.session, "e2")
	require.NoError(t, err)

	assert.Equal(t, "e2-MA571OG0", first.Ticket.ID)
	assert.Equal(t, "e2-MA571OG1", second.Ticket.ID)
	assert.Len(t, f.session.Tickets(), 2)
}

func TestPurchase_OlderAttemptDoesNotResetPhase(t *testing.T) {
	f := newFixture(t)
	f.session.SetIdentity("0xWALLET1")

	_, err := f.orch.Purchase(context.Background(), f.session, "e1")
	require.NoError(t, err)

	f.clock.Advance(time.Second)
	f.ledger.onCall = func() {
		f.clock.Advance(time.Second)
	}
	_, err = f.orch.Purchase(context.Background(), f.session, "e2")
	require.NoError(t, err)

	// The first attempt's hold expired while the second was in flight.
	assert.Equal(t, tickets.PhaseComplete, f.session.Phase())
}

func TestPurchase_ZeroHoldFinishesImmediately(t *testing.T) {
	f := newFixture(t)
	logger, _ := test.NewNullLogger()
	f.orch = NewOrchestrator(f.ledger, f.store, catalog.Default(), testPackage, f.clock, logger,
		WithRecorder(f.recorder), WithCompleteHold(0))
	f.session.SetIdentity("0xWALLET1")

	_, err := f.orch.Purchase(context.Background(), f.session, "e3")
	require.NoError(t, err)
	assert.Equal(t, tickets.PhaseIdle, f.session.Phase())
	assert.Equal(t, tickets.ViewWallet, f.session.State().View)
}

func TestPurchase_WalletCheckComesBeforeEventLookup(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Purchase(context.Background(), f.session, "e9")

	require.ErrorIs(t, err, ErrWalletNotConnected)
	assert.True(t, f.session.State().WalletNotice)
	assert.Empty(t, f.ledger.calls)
}

func TestPurchase_WalletDisconnectedInFlight(t *testing.T) {
	f := newFixture(t)
	f.session.SetIdentity("0xWALLET1")
	f.ledger.onCall = func() {
		gen := f.session.SetIdentity("")
		f.session.Reset(gen)
	}

	res, err := f.orch.Purchase(context.Background(), f.session, "e2")
	require.NoError(t, err)

	assert.True(t, res.Detached)
	assert.Equal(t, "0xWALLET1", res.Ticket.OwnerAddress)
	assert.Empty(t, f.session.Tickets())

	require.Len(t, f.recorder.rows, 1)
	assert.Equal(t, models.OutcomeIssued, f.recorder.rows[0].Outcome)
}

func TestPurchase_WalletSwitchedInFlight(t *testing.T) {
	f := newFixture(t)
	f.session.SetIdentity("0xWALLET1")
	f.store.onPut = func() {
		f.session.SetIdentity("0xWALLET2")
	}

	res, err := f.orch.Purchase(context.Background(), f.session, "e2")
	require.NoError(t, err)

	assert.True(t, res.Detached)
	assert.Empty(t, f.session.Tickets())
}
