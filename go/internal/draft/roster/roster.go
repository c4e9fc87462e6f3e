// Package roster tallies committed picks into per-position counts and
// classifies what a participant still needs as the draft progresses.
package roster

import (
	"sort"

	"github.com/draftkit/draftroom/go/internal/models"
)

// Urgency classifies how badly a positional need must be addressed.
type Urgency string

const (
	UrgencyNeutral  Urgency = "NEUTRAL"
	UrgencyGood     Urgency = "GOOD"
	UrgencyWarning  Urgency = "WARNING"
	UrgencyCritical Urgency = "CRITICAL"
)

// UrgencyPolicy holds the round thresholds at which unmet needs escalate.
// These are product policy, configured rather than hard-coded.
type UrgencyPolicy struct {
	WarningRound  int `yaml:"warning_round"`
	CriticalRound int `yaml:"critical_round"`
}

// DefaultUrgencyPolicy returns the standard escalation rounds.
func DefaultUrgencyPolicy() UrgencyPolicy {
	return UrgencyPolicy{WarningRound: 8, CriticalRound: 12}
}

// Requirement describes how many players a lineup needs at one position.
type Requirement struct {
	Position    string `yaml:"position"`
	Minimum     int    `yaml:"minimum"`
	Recommended int    `yaml:"recommended"`
}

// DefaultRequirements returns the standard lineup requirements.
func DefaultRequirements() []Requirement {
	return []Requirement{
		{Position: "QB", Minimum: 1, Recommended: 2},
		{Position: "RB", Minimum: 4, Recommended: 5},
		{Position: "WR", Minimum: 4, Recommended: 6},
		{Position: "TE", Minimum: 1, Recommended: 2},
	}
}

// Need is one position's current state against its requirement.
type Need struct {
	Position    string  `json:"position"`
	Current     int     `json:"current"`
	Minimum     int     `json:"minimum"`
	Recommended int     `json:"recommended"`
	Needed      int     `json:"needed"`
	Urgency     Urgency `json:"urgency"`
}

// CountPositions tallies the committed picks belonging to the participant at
// the given 0-indexed draft slot, keyed by player position.
func CountPositions(picks []models.Pick, participantIdx int) map[string]int {
	counts := make(map[string]int)
	for _, p := range picks {
		if p.ParticipantIdx == participantIdx {
			counts[p.PlayerPosition]++
		}
	}
	return counts
}

// PositionNeeds evaluates the given counts against lineup requirements for
// the current round. Results are ordered by requirement position name so the
// output is stable for clients.
func PositionNeeds(counts map[string]int, currentRound int, reqs []Requirement, policy UrgencyPolicy) []Need {
	needs := make([]Need, 0, len(reqs))
	for _, req := range reqs {
		current := counts[req.Position]
		needed := req.Minimum - current
		if needed < 0 {
			needed = 0
		}

		urgency := UrgencyNeutral
		switch {
		case needed > 0 && currentRound >= policy.CriticalRound:
			urgency = UrgencyCritical
		case needed > 0 && currentRound >= policy.WarningRound:
			urgency = UrgencyWarning
		case current >= req.Minimum:
			urgency = UrgencyGood
		}

		needs = append(needs, Need{
			Position:    req.Position,
			Current:     current,
			Minimum:     req.Minimum,
			Recommended: req.Recommended,
			Needed:      needed,
			Urgency:     urgency,
		})
	}
	sort.Slice(needs, func(i, j int) bool { return needs[i].Position < needs[j].Position })
	return needs
}
