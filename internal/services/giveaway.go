package services

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"giveaway/internal/models"
)

const (
	stateOpen int32 = iota
	stateFinalizing
	stateClosed
)

// Giveaway is a single drawing: its immutable configuration, the entry
// ledger it owns, and the Open → Finalizing → Closed state machine. The
// transition out of Open happens exactly once, through a compare-and-swap,
// whichever of the deadline timer and a manual close gets there first.
type Giveaway struct {
	ID          string
	Prize       string
	HostID      string
	CreatedAt   time.Time
	Deadline    time.Time
	WinnerCount int
	BonusRules  models.BonusRules
	ClaimWindow time.Duration

	ledger *EntryLedger
	state  int32

	// mu splits entry traffic from finalization: enter/withdraw share the
	// read side so unrelated participants never serialize, while the
	// finalize snapshot takes the write side. A participant therefore cannot
	// be accepted after winners were drawn from a stale snapshot.
	mu       sync.RWMutex
	winners  []string
	closedAt time.Time
	timer    *time.Timer
}

func newGiveaway(id string, cfg models.GiveawayConfig) *Giveaway {
	return &Giveaway{
		ID:          id,
		Prize:       cfg.Prize,
		HostID:      cfg.HostID,
		CreatedAt:   time.Now(),
		Deadline:    cfg.Deadline,
		WinnerCount: cfg.WinnerCount,
		BonusRules:  cfg.BonusRules,
		ClaimWindow: cfg.ClaimWindow,
		ledger:      NewEntryLedger(),
	}
}

// Status reports the current lifecycle state.
func (g *Giveaway) Status() models.Status {
	switch atomic.LoadInt32(&g.state) {
	case stateFinalizing:
		return models.StatusFinalizing
	case stateClosed:
		return models.StatusClosed
	default:
		return models.StatusOpen
	}
}

// armTimer schedules fire at the giveaway's deadline. Called once, right
// after the record is registered.
func (g *Giveaway) armTimer(fire func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.timer = time.AfterFunc(time.Until(g.Deadline), fire)
}

// enter records a participant while the giveaway is still open.
func (g *Giveaway) enter(participantID string, weight int) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if atomic.LoadInt32(&g.state) != stateOpen {
		return ErrAlreadyClosed
	}
	if g.ledger.Add(participantID, weight) {
		return ErrAlreadyEntered
	}
	return nil
}

// withdraw removes a participant while the giveaway is still open.
func (g *Giveaway) withdraw(participantID string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if atomic.LoadInt32(&g.state) != stateOpen {
		return ErrAlreadyClosed
	}
	if !g.ledger.Remove(participantID) {
		return ErrNotEntered
	}
	return nil
}

// beginFinalize attempts the Open → Finalizing transition. Exactly one
// caller wins; everyone else gets ok == false and must discard its work.
// The winner receives the ledger snapshot the drawing is based on. Stopping
// the timer here is an optimization only; a firing that lost the swap is a
// no-op regardless.
func (g *Giveaway) beginFinalize() (snapshot map[string]int, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !atomic.CompareAndSwapInt32(&g.state, stateOpen, stateFinalizing) {
		return nil, false
	}
	if g.timer != nil {
		g.timer.Stop()
	}
	return g.ledger.Snapshot(), true
}

// completeFinalize fixes the winner list and closes the record. Winners are
// never written again.
func (g *Giveaway) completeFinalize(winners []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.winners = winners
	g.closedAt = time.Now()
	atomic.StoreInt32(&g.state, stateClosed)
}

// Winners returns a copy of the final winner list; empty until closed.
func (g *Giveaway) Winners() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	winners := make([]string, len(g.winners))
	copy(winners, g.winners)
	return winners
}

// participants returns the current entrants sorted by id.
func (g *Giveaway) participants() []string {
	snapshot := g.ledger.Snapshot()
	ids := make([]string, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// closedSince reports when the record closed, if it has.
func (g *Giveaway) closedSince() (time.Time, bool) {
	if atomic.LoadInt32(&g.state) != stateClosed {
		return time.Time{}, false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.closedAt, true
}

// summary builds the read-only panel view of the record.
func (g *Giveaway) summary() models.GiveawaySummary {
	remaining := time.Until(g.Deadline)
	if remaining < 0 {
		remaining = 0
	}
	s := models.GiveawaySummary{
		ID:           g.ID,
		Prize:        g.Prize,
		HostID:       g.HostID,
		Status:       g.Status(),
		Deadline:     g.Deadline,
		Remaining:    remaining,
		Participants: g.ledger.Count(),
		WinnerCount:  g.WinnerCount,
	}
	if s.Status == models.StatusClosed {
		s.Winners = g.Winners()
	}
	return s
}
