// Package turnorder holds the pure snake-draft arithmetic: which seat is on
// the clock for a given overall pick number, and how far away a seat's next
// turn is. It performs no I/O and assumes callers only ask about pick numbers
// within the draft (the committer enforces completion before advancing).
package turnorder

// ParticipantIndexForPick returns the 0-indexed round-one slot that is on the
// clock for the given overall pick number. Odd rounds run 0..teamCount-1,
// even rounds reverse.
func ParticipantIndexForPick(pickNumber, teamCount int) int {
	round := (pickNumber-1)/teamCount + 1
	posInRound := (pickNumber - 1) % teamCount
	if round%2 == 0 {
		return teamCount - 1 - posInRound
	}
	return posInRound
}

// Info labels an overall pick number with its round and position within the
// round. PickInRound is 1-indexed and not reversed: it counts picks taken in
// the round regardless of direction.
type Info struct {
	Round       int
	PickInRound int
}

// PickInfo returns round and pick-in-round for an overall pick number.
func PickInfo(pickNumber, teamCount int) Info {
	return Info{
		Round:       (pickNumber-1)/teamCount + 1,
		PickInRound: (pickNumber-1)%teamCount + 1,
	}
}

// PicksAway returns how many picks must be committed before the seat at the
// given 1-indexed draft position is on the clock, with 0 meaning it is their
// turn right now at currentPick.
func PicksAway(currentPick, draftPosition, teamCount int) int {
	idx := draftPosition - 1
	// A seat picks at least once every two rounds, so the scan is bounded.
	for offset := 0; offset < 2*teamCount; offset++ {
		if ParticipantIndexForPick(currentPick+offset, teamCount) == idx {
			return offset
		}
	}
	return 2 * teamCount
}
