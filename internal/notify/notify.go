// Package notify holds the default sink implementations. They write through
// the service log; real chat delivery (Discord, Telegram, ...) plugs in by
// implementing the same interfaces outside this repo.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/logger"

	"giveaway/internal/models"
)

// LogAnnouncer logs each drawing's final result.
type LogAnnouncer struct{}

// AnnounceResult implements services.Announcer.
func (LogAnnouncer) AnnounceResult(result models.DrawResult) error {
	if len(result.Winners) == 0 {
		logger.Infof("giveaway %s (%q) ended with no participants", result.GiveawayID, result.Prize)
		return nil
	}
	msg := fmt.Sprintf("the %q giveaway hosted by %s has ended, winner(s): %s",
		result.Prize, result.HostID, strings.Join(result.Winners, ", "))
	if !result.ClaimBy.IsZero() {
		msg += fmt.Sprintf(", claim before %s", result.ClaimBy.Format(time.RFC3339))
	}
	logger.Info(msg)
	return nil
}

// LogPanel logs panel refreshes.
type LogPanel struct{}

// PublishUpdate implements services.PanelSink.
func (LogPanel) PublishUpdate(update models.PanelUpdate) {
	logger.Infof("panel %s (%q): %d participant(s), %s remaining",
		update.GiveawayID, update.Prize, update.Participants, update.Remaining.Round(time.Second))
}
