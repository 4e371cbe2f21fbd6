package issuance

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// idGenerator synthesizes session ticket ids of the form
// <eventId>-<base36 unix millis, upper-cased>. The millisecond component
// never repeats within one generator, so two purchases landing in the
// same millisecond still get distinct ids.
type idGenerator struct {
	mu   sync.Mutex
	last int64
}

func (g *idGenerator) next(eventID string, now time.Time) string {
	g.mu.Lock()
	ms := now.UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	g.mu.Unlock()

	return eventID + "-" + strings.ToUpper(strconv.FormatInt(ms, 36))
}
