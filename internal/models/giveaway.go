package models

import "time"

// Status is the lifecycle state of a giveaway.
type Status string

const (
	StatusOpen       Status = "open"
	StatusFinalizing Status = "finalizing"
	StatusClosed     Status = "closed"
)

// BonusRules maps an eligibility group to the extra entries its members get.
// A participant's weight is one base entry plus every matching bonus.
type BonusRules map[string]int

// GiveawayConfig holds everything fixed at creation time. Fields are never
// changed once the giveaway exists.
type GiveawayConfig struct {
	Prize       string        `json:"prize"`
	HostID      string        `json:"hostId"`
	Deadline    time.Time     `json:"deadline"`
	WinnerCount int           `json:"winnerCount"`
	BonusRules  BonusRules    `json:"bonusRules,omitempty"`
	ClaimWindow time.Duration `json:"claimWindow,omitempty"` // how long winners have to claim; 0 = no claim deadline
}

// GiveawaySummary is the read-only panel view of one giveaway.
type GiveawaySummary struct {
	ID           string        `json:"id"`
	Prize        string        `json:"prize"`
	HostID       string        `json:"hostId"`
	Status       Status        `json:"status"`
	Deadline     time.Time     `json:"deadline"`
	Remaining    time.Duration `json:"remaining"`
	Participants int           `json:"participants"`
	WinnerCount  int           `json:"winnerCount"`
	Winners      []string      `json:"winners,omitempty"`
}

// DrawResult is handed to the announcement sink exactly once per giveaway.
type DrawResult struct {
	GiveawayID string    `json:"giveawayId"`
	Prize      string    `json:"prize"`
	HostID     string    `json:"hostId"`
	Winners    []string  `json:"winners"`
	ClaimBy    time.Time `json:"claimBy,omitempty"`
	DrawnAt    time.Time `json:"drawnAt"`
}

// PanelUpdate is a best-effort progress push for the rendering collaborator.
type PanelUpdate struct {
	GiveawayID   string        `json:"giveawayId"`
	Prize        string        `json:"prize"`
	Participants int           `json:"participants"`
	Deadline     time.Time     `json:"deadline"`
	Remaining    time.Duration `json:"remaining"`
}
