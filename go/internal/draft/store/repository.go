package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/sqlc-dev/pqtype"

	"github.com/draftkit/draftroom/go/internal/draft/engine"
	"github.com/draftkit/draftroom/go/internal/models"
	"github.com/draftkit/draftroom/go/internal/sqlutil"
)

// maxSerializableRetries bounds how often a conflicting room transaction is
// re-run before the failure is surfaced to the caller.
const maxSerializableRetries = 3

// Repository is the Postgres-backed room store. One DraftRoom row plus its
// append-only draft_picks child rows form the aggregate; pick mutations only
// happen through WithinRoomTxn.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a room store on the given database.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

var _ engine.RoomStore = (*Repository)(nil)

// GetRoom reads a room with relaxed (non-transactional) consistency.
func (r *Repository) GetRoom(ctx context.Context, roomID uuid.UUID) (*models.DraftRoom, error) {
	return queryRoom(ctx, r.db, roomID)
}

// ListPicks reads a room's committed picks with relaxed consistency.
func (r *Repository) ListPicks(ctx context.Context, roomID uuid.UUID) ([]models.Pick, error) {
	return queryPicks(ctx, r.db, roomID)
}

// WithinRoomTxn runs fn under serializable isolation, retrying serialization
// conflicts a bounded number of times. A retried loser re-reads committed
// state and re-validates, so it ends with a definite domain error instead of
// a silent no-op.
func (r *Repository) WithinRoomTxn(ctx context.Context, roomID uuid.UUID, fn func(ctx context.Context, txn engine.RoomTxn) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = sqlutil.Run(ctx, r.db, sqlutil.Serializable(), func(tx *sql.Tx) error {
			return fn(ctx, &roomTxn{tx: tx, roomID: roomID})
		})
		if !isSerializationFailure(err) || attempt >= maxSerializableRetries {
			return err
		}
		log.Debug().
			Str("room_id", roomID.String()).
			Int("attempt", attempt+1).
			Msg("room transaction serialization conflict; retrying")
	}
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "40001"
}

// CreateRoom inserts a new pre-draft room with its participants.
func (r *Repository) CreateRoom(ctx context.Context, room *models.DraftRoom) error {
	return sqlutil.Run(ctx, r.db, nil, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO draft_rooms (id, status, current_pick_number, team_count, roster_size, pick_time_sec, timer_started_at, created_at, completed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			room.ID, room.Status, room.CurrentPickNumber, room.TeamCount, room.RosterSize,
			room.PickTimeSec, nullTime(room.TimerStartedAt), room.CreatedAt, nullTime(room.CompletedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert draft room: %w", err)
		}
		for _, p := range room.Participants {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO draft_participants (id, room_id, user_id, draft_position)
				VALUES ($1, $2, $3, $4)`,
				p.ID, room.ID, p.UserID, p.DraftPosition,
			)
			if err != nil {
				return fmt.Errorf("failed to insert participant: %w", err)
			}
		}
		return nil
	})
}

// NextDeadline returns the soonest pick deadline (timer start plus allowance
// plus grace) across active rooms, or nil when no timer is running.
func (r *Repository) NextDeadline(ctx context.Context, grace time.Duration) (*RoomDeadline, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, timer_started_at + make_interval(secs => pick_time_sec) + $1::interval AS deadline
		FROM draft_rooms
		WHERE status = $2 AND timer_started_at IS NOT NULL
		ORDER BY deadline
		LIMIT 1`,
		fmt.Sprintf("%f seconds", grace.Seconds()), models.RoomStatusActive,
	)
	var d RoomDeadline
	if err := row.Scan(&d.RoomID, &d.Deadline); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch next deadline: %w", err)
	}
	return &d, nil
}

// RoomsDueForPick returns active rooms whose pick deadline (including grace)
// has passed as of the given instant.
func (r *Repository) RoomsDueForPick(ctx context.Context, asOf time.Time, grace time.Duration, limit int32) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id
		FROM draft_rooms
		WHERE status = $1
		  AND timer_started_at IS NOT NULL
		  AND timer_started_at + make_interval(secs => pick_time_sec) + $2::interval <= $3
		ORDER BY timer_started_at
		LIMIT $4`,
		models.RoomStatusActive, fmt.Sprintf("%f seconds", grace.Seconds()), asOf, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due rooms: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan due room id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RoomDeadline pairs a room with its current pick deadline.
type RoomDeadline struct {
	RoomID   uuid.UUID
	Deadline time.Time
}

// roomTxn binds the engine's transactional contract to one *sql.Tx.
type roomTxn struct {
	tx     *sql.Tx
	roomID uuid.UUID
}

func (t *roomTxn) Room(ctx context.Context) (*models.DraftRoom, error) {
	return queryRoom(ctx, t.tx, t.roomID)
}

func (t *roomTxn) Picks(ctx context.Context) ([]models.Pick, error) {
	return queryPicks(ctx, t.tx, t.roomID)
}

func (t *roomTxn) InsertPick(ctx context.Context, pick models.Pick) error {
	snapshot, err := json.Marshal(pick.RosterSnapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal roster snapshot: %w", err)
	}
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO draft_picks (id, room_id, pick_number, round, pick_in_round, participant_id, participant_idx, player_id, player_position, source, is_autopick, roster_snapshot, picked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		pick.ID, pick.RoomID, pick.PickNumber, pick.Round, pick.PickInRound,
		pick.ParticipantID, pick.ParticipantIdx, pick.PlayerID, pick.PlayerPosition,
		pick.Source, pick.IsAutopick,
		pqtype.NullRawMessage{RawMessage: snapshot, Valid: true}, pick.PickedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert pick: %w", err)
	}
	return nil
}

func (t *roomTxn) UpdateRoom(ctx context.Context, room *models.DraftRoom) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE draft_rooms
		SET status = $2, current_pick_number = $3, timer_started_at = $4, completed_at = $5
		WHERE id = $1`,
		room.ID, room.Status, room.CurrentPickNumber,
		nullTime(room.TimerStartedAt), nullTime(room.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}
	return nil
}

func (t *roomTxn) InsertEvent(ctx context.Context, eventType string, payload []byte) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO draft_outbox (id, room_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, now())`,
		uuid.New(), t.roomID, eventType,
		pqtype.NullRawMessage{RawMessage: payload, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

// queryer lets room reads run on the pool or inside a transaction.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryRoom(ctx context.Context, q queryer, roomID uuid.UUID) (*models.DraftRoom, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, status, current_pick_number, team_count, roster_size, pick_time_sec, timer_started_at, created_at, completed_at
		FROM draft_rooms
		WHERE id = $1`, roomID,
	)

	var room models.DraftRoom
	var timerStartedAt, completedAt sql.NullTime
	err := row.Scan(&room.ID, &room.Status, &room.CurrentPickNumber, &room.TeamCount,
		&room.RosterSize, &room.PickTimeSec, &timerStartedAt, &room.CreatedAt, &completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, engine.NewError(engine.CodeRoomNotFound, "draft room %s not found", roomID)
		}
		return nil, fmt.Errorf("failed to get draft room: %w", err)
	}
	if timerStartedAt.Valid {
		room.TimerStartedAt = &timerStartedAt.Time
	}
	if completedAt.Valid {
		room.CompletedAt = &completedAt.Time
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, draft_position
		FROM draft_participants
		WHERE room_id = $1
		ORDER BY draft_position`, roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.UserID, &p.DraftPosition); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		room.Participants = append(room.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &room, nil
}

func queryPicks(ctx context.Context, q queryer, roomID uuid.UUID) ([]models.Pick, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, room_id, pick_number, round, pick_in_round, participant_id, participant_idx, player_id, player_position, source, is_autopick, roster_snapshot, picked_at
		FROM draft_picks
		WHERE room_id = $1
		ORDER BY pick_number`, roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	defer rows.Close()

	var picks []models.Pick
	for rows.Next() {
		var p models.Pick
		var snapshot pqtype.NullRawMessage
		err := rows.Scan(&p.ID, &p.RoomID, &p.PickNumber, &p.Round, &p.PickInRound,
			&p.ParticipantID, &p.ParticipantIdx, &p.PlayerID, &p.PlayerPosition,
			&p.Source, &p.IsAutopick, &snapshot, &p.PickedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		if snapshot.Valid {
			if err := json.Unmarshal(snapshot.RawMessage, &p.RosterSnapshot); err != nil {
				return nil, fmt.Errorf("failed to unmarshal roster snapshot: %w", err)
			}
		}
		picks = append(picks, p)
	}
	return picks, rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
