package tickets

import (
	"sync"

	"github.com/farellandr/namitix/internal/models"
)

// Phase is the issuance progress shown to the UI.
type Phase string

const (
	PhaseIdle                  Phase = "idle"
	PhaseSubmittingTransaction Phase = "submitting-transaction"
	PhaseStoringMetadata       Phase = "storing-metadata"
	PhaseComplete              Phase = "complete"
)

// View is the UI view the session should display.
type View string

const (
	ViewBrowse View = "browse"
	ViewWallet View = "wallet"
)

// Session is the state of one wallet connection: the connected identity
// and the ticket list maintained for it. All methods are safe for
// concurrent use.
type Session struct {
	id string

	mu           sync.Mutex
	identity     string
	generation   uint64
	tickets      []models.Ticket
	phase        Phase
	attempt      uint64
	view         View
	walletNotice bool
}

// State is a point-in-time copy of a session for display.
type State struct {
	ID           string `json:"id"`
	Identity     string `json:"identity,omitempty"`
	Phase        Phase  `json:"phase"`
	View         View   `json:"view"`
	WalletNotice bool   `json:"walletNotice"`
	TicketCount  int    `json:"ticketCount"`
}

func NewSession(id string) *Session {
	return &Session{
		id:    id,
		phase: PhaseIdle,
		view:  ViewBrowse,
	}
}

func (s *Session) ID() string {
	return s.id
}

// Identity returns the connected wallet address ("" when none) and the
// generation it was set in.
func (s *Session) Identity() (string, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.generation
}

// SetIdentity records an identity change (address "" disconnects) and
// returns the new generation. Reconciliation results tagged with an
// older generation are discarded.
func (s *Session) SetIdentity(address string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = address
	s.generation++
	if address != "" {
		s.walletNotice = false
	}
	return s.generation
}

func (s *Session) Tickets() []models.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Ticket, len(s.tickets))
	copy(out, s.tickets)
	return out
}

func (s *Session) Ticket(id string) (models.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tickets {
		if t.ID == id {
			return t, true
		}
	}
	return models.Ticket{}, false
}

// Append adds a newly issued ticket. It reports false, leaving the list
// unchanged, when the id is already present.
func (s *Session) Append(ticket models.Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tickets {
		if t.ID == ticket.ID {
			return false
		}
	}
	s.tickets = append(s.tickets, ticket)
	return true
}

// AppendFor appends ticket only while generation is still the current
// identity generation. A ticket minted for a wallet that has since been
// switched or disconnected is not added.
func (s *Session) AppendFor(generation uint64, ticket models.Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return false
	}
	for _, t := range s.tickets {
		if t.ID == ticket.ID {
			return false
		}
	}
	s.tickets = append(s.tickets, ticket)
	return true
}

// Reset empties the ticket list if generation is still current.
func (s *Session) Reset(generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return false
	}
	s.tickets = nil
	return true
}

// ApplyLoaded merges a reconciliation result into the ticket list if
// generation is still current.
func (s *Session) ApplyLoaded(generation uint64, loaded []models.Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return false
	}
	s.tickets = Merge(s.tickets, loaded)
	return true
}

// BeginAttempt starts a new issuance attempt and returns its sequence
// number. Phase updates from older attempts are ignored so the UI always
// follows the most recent purchase.
func (s *Session) BeginAttempt() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempt++
	return s.attempt
}

func (s *Session) SetPhase(attempt uint64, phase Phase) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt != s.attempt {
		return false
	}
	s.phase = phase
	return true
}

func (s *Session) FinishAttempt(attempt uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt != s.attempt {
		return false
	}
	s.phase = PhaseIdle
	s.view = ViewWallet
	return true
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) SetView(view View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = view
}

func (s *Session) RequireWallet() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.walletNotice = true
}

func (s *Session) DismissWalletNotice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.walletNotice = false
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		ID:           s.id,
		Identity:     s.identity,
		Phase:        s.phase,
		View:         s.view,
		WalletNotice: s.walletNotice,
		TicketCount:  len(s.tickets),
	}
}
