package services

import "giveaway/internal/models"

// ComputeWeight returns the number of tickets a participant holds in a
// drawing: one base entry plus the configured bonus of every rule whose
// group the participant belongs to. The result is always at least 1.
func ComputeWeight(groups []string, rules models.BonusRules) int {
	weight := 1
	for _, group := range groups {
		if bonus, ok := rules[group]; ok && bonus > 0 {
			weight += bonus
		}
	}
	return weight
}
