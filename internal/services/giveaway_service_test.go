package services

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giveaway/internal/models"
)

// captureAnnouncer records every announced result and signals on a channel
// so tests can wait for finalization instead of polling.
type captureAnnouncer struct {
	mu      sync.Mutex
	results []models.DrawResult
	ch      chan models.DrawResult
}

func newCaptureAnnouncer() *captureAnnouncer {
	return &captureAnnouncer{ch: make(chan models.DrawResult, 16)}
}

func (a *captureAnnouncer) AnnounceResult(result models.DrawResult) error {
	a.mu.Lock()
	a.results = append(a.results, result)
	a.mu.Unlock()
	a.ch <- result
	return nil
}

func (a *captureAnnouncer) wait(t *testing.T) models.DrawResult {
	t.Helper()
	select {
	case result := <-a.ch:
		return result
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for the finalization announcement")
		return models.DrawResult{}
	}
}

func (a *captureAnnouncer) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.results)
}

func futureConfig(winnerCount int) models.GiveawayConfig {
	return models.GiveawayConfig{
		Prize:       "mystery box",
		HostID:      "host-1",
		Deadline:    time.Now().Add(time.Hour),
		WinnerCount: winnerCount,
	}
}

func TestCreateGiveaway_InvalidConfig(t *testing.T) {
	svc := NewGiveawayService(nil, nil)

	t.Run("winner count below one", func(t *testing.T) {
		cfg := futureConfig(0)
		_, err := svc.CreateGiveaway(cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("deadline in the past", func(t *testing.T) {
		cfg := futureConfig(1)
		cfg.Deadline = time.Now().Add(-time.Minute)
		_, err := svc.CreateGiveaway(cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestEnterAndWithdraw(t *testing.T) {
	svc := NewGiveawayService(nil, nil)
	id, err := svc.CreateGiveaway(futureConfig(1))
	require.NoError(t, err)

	require.NoError(t, svc.Enter(id, "bob", nil))
	require.NoError(t, svc.Enter(id, "alice", nil))

	t.Run("enter is idempotent", func(t *testing.T) {
		assert.ErrorIs(t, svc.Enter(id, "alice", nil), ErrAlreadyEntered)

		participants, err := svc.ListParticipants(id)
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "bob"}, participants)
	})

	t.Run("withdraw then re-withdraw", func(t *testing.T) {
		require.NoError(t, svc.Withdraw(id, "bob"))
		assert.ErrorIs(t, svc.Withdraw(id, "bob"), ErrNotEntered)

		participants, err := svc.ListParticipants(id)
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, participants)
	})

	t.Run("unknown giveaway", func(t *testing.T) {
		assert.ErrorIs(t, svc.Enter("missing", "alice", nil), ErrNotFound)
		assert.ErrorIs(t, svc.Withdraw("missing", "alice"), ErrNotFound)
		_, err := svc.ListParticipants("missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDeadlineFinalizesExactlyOnce(t *testing.T) {
	announcer := newCaptureAnnouncer()
	svc := NewGiveawayService(announcer, nil)

	cfg := futureConfig(1)
	cfg.Deadline = time.Now().Add(50 * time.Millisecond)
	id, err := svc.CreateGiveaway(cfg)
	require.NoError(t, err)

	require.NoError(t, svc.Enter(id, "alice", nil))
	require.NoError(t, svc.Enter(id, "bob", nil))

	result := announcer.wait(t)
	assert.Equal(t, id, result.GiveawayID)
	require.Len(t, result.Winners, 1)
	assert.Contains(t, []string{"alice", "bob"}, result.Winners[0])

	summary, err := svc.Describe(id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, summary.Status)
	assert.Equal(t, result.Winners, summary.Winners)

	// The record never reopens.
	assert.ErrorIs(t, svc.Enter(id, "carol", nil), ErrAlreadyClosed)
	assert.ErrorIs(t, svc.Withdraw(id, "alice"), ErrAlreadyClosed)

	// Give a straggling double-fire a chance to show up.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, announcer.count(), "finalization must announce exactly once")
}

func TestDeadlineWithNoParticipants(t *testing.T) {
	announcer := newCaptureAnnouncer()
	svc := NewGiveawayService(announcer, nil)

	cfg := futureConfig(3)
	cfg.Deadline = time.Now().Add(30 * time.Millisecond)
	id, err := svc.CreateGiveaway(cfg)
	require.NoError(t, err)

	result := announcer.wait(t)
	assert.Empty(t, result.Winners)

	summary, err := svc.Describe(id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, summary.Status)
}

func TestBonusWeightDistribution(t *testing.T) {
	svc := NewGiveawayService(nil, nil)
	svc.WithRand(rand.New(rand.NewSource(42)))

	const trials = 10000
	bonusWins := 0
	for i := 0; i < trials; i++ {
		cfg := futureConfig(1)
		cfg.BonusRules = models.BonusRules{"booster": 2}
		id, err := svc.CreateGiveaway(cfg)
		require.NoError(t, err)

		require.NoError(t, svc.Enter(id, "bonus", []string{"booster"}))
		require.NoError(t, svc.Enter(id, "plain", nil))

		winners, err := svc.ForceClose(id)
		require.NoError(t, err)
		require.Len(t, winners, 1)
		if winners[0] == "bonus" {
			bonusWins++
		}
		require.NoError(t, svc.RemoveGiveaway(id))
	}

	ratio := float64(bonusWins) / float64(trials)
	assert.InDelta(t, 0.75, ratio, 0.03, "base 1 + bonus 2 should win about 3 in 4 drawings")
}

func TestForceCloseBeatsLateEntries(t *testing.T) {
	announcer := newCaptureAnnouncer()
	svc := NewGiveawayService(announcer, nil)

	id, err := svc.CreateGiveaway(futureConfig(1))
	require.NoError(t, err)
	require.NoError(t, svc.Enter(id, "alice", nil))

	winners, err := svc.ForceClose(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, winners)

	assert.ErrorIs(t, svc.Enter(id, "bob", nil), ErrAlreadyClosed)

	// The fixed winner list is unaffected by the rejected entry, and a
	// second close loses the state transition.
	summary, err := svc.Describe(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, summary.Winners)

	_, err = svc.ForceClose(id)
	assert.ErrorIs(t, err, ErrAlreadyClosed)
	assert.Equal(t, 1, announcer.count())
}

func TestNoEntryAcceptedAfterClose(t *testing.T) {
	announcer := newCaptureAnnouncer()
	svc := NewGiveawayService(announcer, nil)

	cfg := futureConfig(5)
	cfg.Deadline = time.Now().Add(20 * time.Millisecond)
	id, err := svc.CreateGiveaway(cfg)
	require.NoError(t, err)

	// Hammer the giveaway with entries until the deadline slams the door.
	// Every accepted entry must still be in the ledger afterwards; winners
	// may only come from accepted entries.
	accepted := make(map[string]bool)
	for i := 0; ; i++ {
		participant := fmt.Sprintf("user-%05d", i)
		err := svc.Enter(id, participant, nil)
		if errors.Is(err, ErrAlreadyClosed) {
			break
		}
		require.NoError(t, err)
		accepted[participant] = true
	}

	result := announcer.wait(t)
	for _, winner := range result.Winners {
		assert.True(t, accepted[winner], "winner %s was never accepted", winner)
	}

	participants, err := svc.ListParticipants(id)
	require.NoError(t, err)
	assert.Len(t, participants, len(accepted), "no accepted entry may be silently lost")
}

func TestConcurrentCloseAndEntries(t *testing.T) {
	announcer := newCaptureAnnouncer()
	svc := NewGiveawayService(announcer, nil)

	cfg := futureConfig(2)
	cfg.Deadline = time.Now().Add(30 * time.Millisecond)
	id, err := svc.CreateGiveaway(cfg)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				participant := fmt.Sprintf("w%d-user-%d", n, j)
				if err := svc.Enter(id, participant, nil); errors.Is(err, ErrAlreadyClosed) {
					return
				}
			}
		}(i)
	}
	// Race a manual close against the deadline timer; exactly one wins.
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = svc.ForceClose(id)
	}()
	wg.Wait()

	announcer.wait(t)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, announcer.count(), "deadline and manual close must not both finalize")
}

func TestRemoveAndSweep(t *testing.T) {
	svc := NewGiveawayService(nil, nil)

	t.Run("open records cannot be removed", func(t *testing.T) {
		id, err := svc.CreateGiveaway(futureConfig(1))
		require.NoError(t, err)
		assert.ErrorIs(t, svc.RemoveGiveaway(id), ErrNotClosed)

		_, err = svc.ForceClose(id)
		require.NoError(t, err)
		require.NoError(t, svc.RemoveGiveaway(id))

		_, err = svc.Describe(id)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, svc.RemoveGiveaway(id), ErrNotFound)
	})

	t.Run("sweep only touches closed records past retention", func(t *testing.T) {
		openID, err := svc.CreateGiveaway(futureConfig(1))
		require.NoError(t, err)
		closedID, err := svc.CreateGiveaway(futureConfig(1))
		require.NoError(t, err)
		_, err = svc.ForceClose(closedID)
		require.NoError(t, err)

		assert.Equal(t, 0, svc.SweepClosed(time.Hour), "fresh closed records stay within retention")

		time.Sleep(10 * time.Millisecond)
		assert.Equal(t, 1, svc.SweepClosed(time.Millisecond))

		_, err = svc.Describe(closedID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = svc.Describe(openID)
		assert.NoError(t, err)
	})
}

func TestPanelUpdatesArePushed(t *testing.T) {
	var mu sync.Mutex
	var updates []models.PanelUpdate
	panel := panelFunc(func(u models.PanelUpdate) {
		mu.Lock()
		updates = append(updates, u)
		mu.Unlock()
	})

	svc := NewGiveawayService(nil, panel)
	id, err := svc.CreateGiveaway(futureConfig(1))
	require.NoError(t, err)
	require.NoError(t, svc.Enter(id, "alice", nil))
	svc.PublishOpenPanels()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, updates)
	last := updates[len(updates)-1]
	assert.Equal(t, id, last.GiveawayID)
	assert.Equal(t, 1, last.Participants)
	assert.Greater(t, last.Remaining, time.Duration(0))
}

type panelFunc func(models.PanelUpdate)

func (f panelFunc) PublishUpdate(update models.PanelUpdate) { f(update) }
