// Package outbox relays room events written transactionally alongside picks
// out to the message bus. Writing the event in the committing transaction
// and publishing from a separate relay keeps the bus out of the commit path.
package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Event is one row of the draft_outbox table.
type Event struct {
	ID        uuid.UUID
	RoomID    uuid.UUID
	EventType string
	Payload   []byte
	CreatedAt time.Time
	SentAt    *time.Time
}
