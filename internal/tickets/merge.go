package tickets

import "github.com/farellandr/namitix/internal/models"

// Merge folds a freshly loaded ledger view into the session list. Every
// session ticket is kept as is and in order; loaded tickets are appended
// in their own order only when their id has not been seen yet, so a
// richer session ticket is never replaced by its sparser ledger copy.
func Merge(session, loaded []models.Ticket) []models.Ticket {
	merged := make([]models.Ticket, 0, len(session)+len(loaded))
	seen := make(map[string]struct{}, len(session)+len(loaded))
	for _, t := range session {
		merged = append(merged, t)
		seen[t.ID] = struct{}{}
	}
	for _, t := range loaded {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		merged = append(merged, t)
	}
	return merged
}
