package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const envelopeVersion = 1

// Actor identifies the user whose request produced the event.
type Actor struct {
	UserID uuid.UUID `json:"userId"`
}

// PayloadEnvelope is the JSON stored in outbox_events.payload and published as the message body.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *Actor          `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
