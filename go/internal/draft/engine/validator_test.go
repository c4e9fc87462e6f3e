package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftkit/draftroom/go/internal/models"
)

func testRoom(teamCount, rosterSize int) *models.DraftRoom {
	participants := make([]models.Participant, teamCount)
	for i := range participants {
		participants[i] = models.Participant{
			ID:            uuid.New(),
			UserID:        uuid.New(),
			DraftPosition: i + 1,
		}
	}
	return &models.DraftRoom{
		ID:                uuid.New(),
		Status:            models.RoomStatusActive,
		CurrentPickNumber: 1,
		TeamCount:         teamCount,
		RosterSize:        rosterSize,
		PickTimeSec:       30,
		Participants:      participants,
		CreatedAt:         time.Now(),
	}
}

func testPlayer(position string) *models.Player {
	return &models.Player{
		ID:       uuid.New(),
		FullName: "Test Player",
		Position: position,
		ADPRank:  1,
	}
}

func TestValidatePickRoomNotFound(t *testing.T) {
	snap := Snapshot{Room: nil, Player: testPlayer("RB"), Now: time.Now()}
	_, err := ValidatePick(snap, uuid.New(), nil, ValidateOptions{})
	assert.Equal(t, CodeRoomNotFound, CodeOf(err))
}

func TestValidatePickStatusGates(t *testing.T) {
	player := testPlayer("RB")

	room := testRoom(4, 15)
	room.Status = models.RoomStatusPreDraft
	snap := Snapshot{Room: room, Player: player, Now: time.Now()}
	_, err := ValidatePick(snap, room.Participants[0].ID, nil, ValidateOptions{})
	assert.Equal(t, CodeDraftNotActive, CodeOf(err))

	room.Status = models.RoomStatusPaused
	_, err = ValidatePick(snap, room.Participants[0].ID, nil, ValidateOptions{})
	assert.Equal(t, CodeDraftNotActive, CodeOf(err))

	room.Status = models.RoomStatusComplete
	_, err = ValidatePick(snap, room.Participants[0].ID, nil, ValidateOptions{})
	assert.Equal(t, CodeDraftComplete, CodeOf(err))
}

func TestValidatePickExhaustedBoardIsComplete(t *testing.T) {
	room := testRoom(4, 2)
	room.CurrentPickNumber = room.TotalPicks() + 1

	snap := Snapshot{Room: room, Player: testPlayer("RB"), Now: time.Now()}
	_, err := ValidatePick(snap, room.Participants[0].ID, nil, ValidateOptions{})
	assert.Equal(t, CodeDraftComplete, CodeOf(err))
}

func TestValidatePickNotYourTurn(t *testing.T) {
	room := testRoom(4, 15)

	// Pick 1 belongs to seat 1; seat 2 tries to jump in.
	snap := Snapshot{Room: room, Player: testPlayer("RB"), Now: time.Now()}
	_, err := ValidatePick(snap, room.Participants[1].ID, nil, ValidateOptions{})
	assert.Equal(t, CodeNotYourTurn, CodeOf(err))

	// Pick 5 snakes back to seat 4; seat 1 is out of turn.
	room.CurrentPickNumber = 5
	_, err = ValidatePick(snap, room.Participants[0].ID, nil, ValidateOptions{})
	assert.Equal(t, CodeNotYourTurn, CodeOf(err))

	plan, err := ValidatePick(snap, room.Participants[3].ID, nil, ValidateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, plan.ParticipantIdx)
	assert.Equal(t, 2, plan.Round)
	assert.Equal(t, 1, plan.PickInRound)
}

func TestValidatePickTimerGraceBoundary(t *testing.T) {
	room := testRoom(4, 15)
	started := time.Now()
	room.TimerStartedAt = &started
	player := testPlayer("RB")

	// 30s timer + 5s grace: 35s elapsed is still allowed, 36s is not.
	snap := Snapshot{Room: room, Player: player, Now: started.Add(35 * time.Second)}
	_, err := ValidatePick(snap, room.Participants[0].ID, nil, ValidateOptions{GracePeriod: 5 * time.Second})
	require.NoError(t, err)

	snap.Now = started.Add(36 * time.Second)
	_, err = ValidatePick(snap, room.Participants[0].ID, nil, ValidateOptions{GracePeriod: 5 * time.Second})
	assert.Equal(t, CodeTimerExpired, CodeOf(err))

	// Autopick enforces the timeout rather than violating it.
	_, err = ValidatePick(snap, room.Participants[0].ID, nil, ValidateOptions{BypassTimer: true})
	require.NoError(t, err)
}

func TestValidatePickNoTimerMeansNoExpiry(t *testing.T) {
	room := testRoom(4, 15)
	room.TimerStartedAt = nil

	snap := Snapshot{Room: room, Player: testPlayer("RB"), Now: time.Now().Add(time.Hour)}
	_, err := ValidatePick(snap, room.Participants[0].ID, nil, ValidateOptions{})
	require.NoError(t, err)
}

func TestValidatePickUnknownPlayer(t *testing.T) {
	room := testRoom(4, 15)
	snap := Snapshot{Room: room, Player: nil, Now: time.Now()}
	_, err := ValidatePick(snap, room.Participants[0].ID, nil, ValidateOptions{})
	assert.Equal(t, CodeEntityNotFound, CodeOf(err))
}

func TestValidatePickAlreadyDrafted(t *testing.T) {
	room := testRoom(4, 15)
	room.CurrentPickNumber = 2
	player := testPlayer("RB")

	picks := []models.Pick{{
		PickNumber:     1,
		ParticipantIdx: 0,
		PlayerID:       player.ID,
		PlayerPosition: player.Position,
	}}

	snap := Snapshot{Room: room, Picks: picks, Player: player, Now: time.Now()}
	_, err := ValidatePick(snap, room.Participants[1].ID, nil, ValidateOptions{})
	assert.Equal(t, CodeEntityUnavailable, CodeOf(err))
}

func TestValidatePickPositionLimit(t *testing.T) {
	room := testRoom(2, 15)
	limits := models.PositionLimits{"QB": 2}

	// Seat 1 already has two quarterbacks from earlier rounds.
	picks := []models.Pick{
		{PickNumber: 1, ParticipantIdx: 0, PlayerID: uuid.New(), PlayerPosition: "QB"},
		{PickNumber: 4, ParticipantIdx: 0, PlayerID: uuid.New(), PlayerPosition: "QB"},
		{PickNumber: 2, ParticipantIdx: 1, PlayerID: uuid.New(), PlayerPosition: "QB"},
		{PickNumber: 3, ParticipantIdx: 1, PlayerID: uuid.New(), PlayerPosition: "RB"},
	}
	room.CurrentPickNumber = 5

	snap := Snapshot{Room: room, Picks: picks, Player: testPlayer("QB"), Now: time.Now()}
	_, err := ValidatePick(snap, room.Participants[0].ID, limits, ValidateOptions{})
	assert.Equal(t, CodePositionLimitReached, CodeOf(err))

	// The limit counts only the picker's roster, so a different position is fine.
	snap.Player = testPlayer("RB")
	_, err = ValidatePick(snap, room.Participants[0].ID, limits, ValidateOptions{})
	require.NoError(t, err)

	// Uncapped positions never hit the limit check.
	snap.Player = testPlayer("K")
	_, err = ValidatePick(snap, room.Participants[0].ID, limits, ValidateOptions{})
	require.NoError(t, err)
}

func TestValidatePickChecksTurnBeforePlayer(t *testing.T) {
	// Validation order matters to clients: a stale-turn submit reports
	// NOT_YOUR_TURN even when the player is also gone.
	room := testRoom(4, 15)
	room.CurrentPickNumber = 2
	player := testPlayer("RB")
	picks := []models.Pick{{PickNumber: 1, ParticipantIdx: 0, PlayerID: player.ID, PlayerPosition: "RB"}}

	snap := Snapshot{Room: room, Picks: picks, Player: player, Now: time.Now()}
	_, err := ValidatePick(snap, room.Participants[0].ID, nil, ValidateOptions{})
	assert.Equal(t, CodeNotYourTurn, CodeOf(err))
}

func TestValidatePickPlanPlacement(t *testing.T) {
	room := testRoom(4, 15)
	room.CurrentPickNumber = 8 // round 2, pick 4, snakes to seat 1

	snap := Snapshot{Room: room, Player: testPlayer("WR"), Now: time.Now()}
	plan, err := ValidatePick(snap, room.Participants[0].ID, nil, ValidateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 8, plan.PickNumber)
	assert.Equal(t, 2, plan.Round)
	assert.Equal(t, 4, plan.PickInRound)
	assert.Equal(t, 0, plan.ParticipantIdx)
	assert.Equal(t, room.Participants[0].ID, plan.Participant.ID)
}
