package turnorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticipantIndexForPickSnakeReversal(t *testing.T) {
	// 4 teams: picks 1-4 go 0,1,2,3 and picks 5-8 come back 3,2,1,0.
	want := []int{0, 1, 2, 3, 3, 2, 1, 0, 0, 1, 2, 3}
	for i, idx := range want {
		assert.Equal(t, idx, ParticipantIndexForPick(i+1, 4), "pick %d", i+1)
	}
}

func TestParticipantIndexForPickBijectionPerRound(t *testing.T) {
	for teamCount := 2; teamCount <= 12; teamCount++ {
		for round := 1; round <= 6; round++ {
			seen := make(map[int]bool, teamCount)
			for pos := 0; pos < teamCount; pos++ {
				pickNumber := (round-1)*teamCount + pos + 1
				idx := ParticipantIndexForPick(pickNumber, teamCount)
				require.GreaterOrEqual(t, idx, 0)
				require.Less(t, idx, teamCount)
				require.False(t, seen[idx], "teams=%d round=%d duplicate index %d", teamCount, round, idx)
				seen[idx] = true
			}
		}
	}
}

func TestPickInfo(t *testing.T) {
	info := PickInfo(1, 4)
	assert.Equal(t, Info{Round: 1, PickInRound: 1}, info)

	info = PickInfo(4, 4)
	assert.Equal(t, Info{Round: 1, PickInRound: 4}, info)

	// Pick 5 opens round two; pick-in-round stays 1-indexed and unreversed.
	info = PickInfo(5, 4)
	assert.Equal(t, Info{Round: 2, PickInRound: 1}, info)

	info = PickInfo(8, 4)
	assert.Equal(t, Info{Round: 2, PickInRound: 4}, info)

	info = PickInfo(9, 4)
	assert.Equal(t, Info{Round: 3, PickInRound: 1}, info)
}

func TestPicksAwayZeroOnOwnTurn(t *testing.T) {
	// Seat 1 in a 4-team draft picks at 1, 8, 9, 16, ...
	assert.Equal(t, 0, PicksAway(1, 1, 4))
	assert.Equal(t, 0, PicksAway(8, 1, 4))
	assert.Equal(t, 0, PicksAway(9, 1, 4))

	// Right after seat 1's round-one pick their next turn is pick 8, with
	// picks 2 through 7 intervening.
	assert.Equal(t, 6, PicksAway(2, 1, 4))

	// Seat 4 at the turn: picks 4 and 5 back to back.
	assert.Equal(t, 0, PicksAway(4, 4, 4))
	assert.Equal(t, 0, PicksAway(5, 4, 4))
	assert.Equal(t, 1, PicksAway(3, 4, 4))
}

func TestPicksAwayZeroCrossings(t *testing.T) {
	// Over a full draft every seat is on the clock exactly rosterSize times.
	const teamCount, rosterSize = 6, 9
	for pos := 1; pos <= teamCount; pos++ {
		zeros := 0
		for pick := 1; pick <= teamCount*rosterSize; pick++ {
			if PicksAway(pick, pos, teamCount) == 0 {
				zeros++
			}
		}
		assert.Equal(t, rosterSize, zeros, "seat %d", pos)
	}
}
