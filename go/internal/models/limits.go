package models

// PositionLimits maps a roster position to the maximum number of players a
// participant may draft at that position. Positions absent from the map are
// unlimited.
type PositionLimits map[string]int

// Limit returns the cap for a position and whether one is configured.
func (l PositionLimits) Limit(position string) (int, bool) {
	n, ok := l[position]
	return n, ok
}

// DefaultPositionLimits returns the system-wide default caps. Rooms may
// override these per participant.
func DefaultPositionLimits() PositionLimits {
	return PositionLimits{
		"QB": 3,
		"RB": 6,
		"WR": 6,
		"TE": 3,
	}
}
