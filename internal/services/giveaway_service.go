package services

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/logger"
	"github.com/google/uuid"

	"giveaway/internal/models"
)

// Outcomes reported to callers. AlreadyEntered and NotEntered are idempotency
// signals rather than failures; handlers decide how loudly to surface them.
var (
	ErrNotFound       = errors.New("giveaway not found")
	ErrAlreadyEntered = errors.New("participant already entered")
	ErrNotEntered     = errors.New("participant not entered")
	ErrAlreadyClosed  = errors.New("giveaway already closed")
	ErrInvalidConfig  = errors.New("invalid giveaway config")
	ErrNotClosed      = errors.New("giveaway still running")
)

// Announcer delivers a drawing's final result. It is called exactly once per
// giveaway, after the winner list is fixed; a delivery failure is logged and
// never affects the record.
type Announcer interface {
	AnnounceResult(result models.DrawResult) error
}

// PanelSink receives best-effort progress updates (participant count, time
// remaining) for the rendering collaborator.
type PanelSink interface {
	PublishUpdate(update models.PanelUpdate)
}

// GiveawayService runs every live giveaway: it owns the registry, arms one
// deadline timer per drawing, and finalizes each exactly once.
type GiveawayService struct {
	registry  *Registry
	announcer Announcer
	panel     PanelSink

	// rngMu serializes draws; rand.Rand is not safe for concurrent use.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewGiveawayService creates a service with no giveaways. Either sink may be
// nil.
func NewGiveawayService(announcer Announcer, panel PanelSink) *GiveawayService {
	return &GiveawayService{
		registry:  NewRegistry(),
		announcer: announcer,
		panel:     panel,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithRand replaces the randomness source, making draws deterministic.
func (s *GiveawayService) WithRand(rng *rand.Rand) {
	s.rng = rng
}

// CreateGiveaway validates the configuration, registers a new open giveaway
// and arms its deadline timer. It returns the fresh giveaway id.
func (s *GiveawayService) CreateGiveaway(cfg models.GiveawayConfig) (string, error) {
	if cfg.WinnerCount < 1 {
		return "", fmt.Errorf("%w: winner count must be at least 1", ErrInvalidConfig)
	}
	if !cfg.Deadline.After(time.Now()) {
		return "", fmt.Errorf("%w: deadline must be in the future", ErrInvalidConfig)
	}

	g := newGiveaway(uuid.NewString(), cfg)
	s.registry.add(g)
	g.armTimer(func() { s.finalize(g) })

	logger.Infof("giveaway %s created: prize %q, %d winner(s), ends %s",
		g.ID, g.Prize, g.WinnerCount, g.Deadline.Format(time.RFC3339))
	s.pushPanel(g)
	return g.ID, nil
}

// Enter adds a participant to an open giveaway. The participant's weight is
// computed from its group memberships and the giveaway's bonus rules.
func (s *GiveawayService) Enter(giveawayID, participantID string, groups []string) error {
	g, ok := s.registry.Get(giveawayID)
	if !ok {
		return ErrNotFound
	}
	if err := g.enter(participantID, ComputeWeight(groups, g.BonusRules)); err != nil {
		return err
	}
	s.pushPanel(g)
	return nil
}

// Withdraw removes a participant from an open giveaway.
func (s *GiveawayService) Withdraw(giveawayID, participantID string) error {
	g, ok := s.registry.Get(giveawayID)
	if !ok {
		return ErrNotFound
	}
	if err := g.withdraw(participantID); err != nil {
		return err
	}
	s.pushPanel(g)
	return nil
}

// ListParticipants returns the current entrants, sorted by id.
func (s *GiveawayService) ListParticipants(giveawayID string) ([]string, error) {
	g, ok := s.registry.Get(giveawayID)
	if !ok {
		return nil, ErrNotFound
	}
	return g.participants(), nil
}

// Describe returns the panel view of a giveaway.
func (s *GiveawayService) Describe(giveawayID string) (models.GiveawaySummary, error) {
	g, ok := s.registry.Get(giveawayID)
	if !ok {
		return models.GiveawaySummary{}, ErrNotFound
	}
	return g.summary(), nil
}

// ForceClose finalizes a giveaway before its deadline and returns the winner
// list. If the deadline timer got there first (or the giveaway was already
// closed) it reports ErrAlreadyClosed.
func (s *GiveawayService) ForceClose(giveawayID string) ([]string, error) {
	g, ok := s.registry.Get(giveawayID)
	if !ok {
		return nil, ErrNotFound
	}
	if !s.finalize(g) {
		return nil, ErrAlreadyClosed
	}
	return g.Winners(), nil
}

// RemoveGiveaway drops a closed giveaway from the registry.
func (s *GiveawayService) RemoveGiveaway(giveawayID string) error {
	return s.registry.Remove(giveawayID)
}

// SweepClosed removes closed giveaways older than the retention window.
func (s *GiveawayService) SweepClosed(retention time.Duration) int {
	return s.registry.Sweep(retention)
}

// PublishOpenPanels re-publishes the panel state of every open giveaway.
// Meant to run on a fixed interval so time-remaining stays fresh without the
// engine ticking on its own.
func (s *GiveawayService) PublishOpenPanels() {
	for _, g := range s.registry.Open() {
		s.pushPanel(g)
	}
}

// finalize drives Open → Finalizing → Closed. The deadline timer and a
// manual close race through beginFinalize's compare-and-swap; the loser
// returns false and discards its work. Sinks are called after every lock has
// been released, so a slow collaborator cannot block entries on other
// giveaways or the close itself.
func (s *GiveawayService) finalize(g *Giveaway) bool {
	snapshot, ok := g.beginFinalize()
	if !ok {
		return false
	}

	s.rngMu.Lock()
	winners := PickWinners(snapshot, g.WinnerCount, s.rng)
	s.rngMu.Unlock()

	g.completeFinalize(winners)
	logger.Infof("giveaway %s closed: %d winner(s) drawn from %d participant(s)",
		g.ID, len(winners), len(snapshot))

	if s.announcer != nil {
		result := models.DrawResult{
			GiveawayID: g.ID,
			Prize:      g.Prize,
			HostID:     g.HostID,
			Winners:    winners,
			DrawnAt:    time.Now(),
		}
		if g.ClaimWindow > 0 {
			result.ClaimBy = result.DrawnAt.Add(g.ClaimWindow)
		}
		if err := s.announcer.AnnounceResult(result); err != nil {
			logger.Errorf("giveaway %s: announcing result: %v", g.ID, err)
		}
	}
	s.pushPanel(g)
	return true
}

// pushPanel is fire-and-forget; a missing or broken sink never disturbs a
// drawing.
func (s *GiveawayService) pushPanel(g *Giveaway) {
	if s.panel == nil {
		return
	}
	remaining := time.Until(g.Deadline)
	if remaining < 0 {
		remaining = 0
	}
	s.panel.PublishUpdate(models.PanelUpdate{
		GiveawayID:   g.ID,
		Prize:        g.Prize,
		Participants: g.ledger.Count(),
		Deadline:     g.Deadline,
		Remaining:    remaining,
	})
}
