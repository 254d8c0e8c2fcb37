// Package mailbox implements the single-slot file mailbox shared by the command
// writer and the mode controller.
package mailbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/naman200494-art/Touchless-Gesture-Control/internal/mode"
)

// ErrMalformedRecord marks a mailbox record that was consumed but could not be parsed.
var ErrMalformedRecord = errors.New("malformed mailbox record")

// Command is the one persisted record: the latest requested mode.
type Command struct {
	Mode mode.Mode `json:"mode"`
	Time float64   `json:"time"`
	ID   string    `json:"id,omitempty"`
}

// NewCommand stamps a command with the submission time and a correlation ID.
func NewCommand(m mode.Mode, at time.Time) Command {
	return Command{Mode: m, Time: Timestamp(at), ID: uuid.NewString()}
}

// Timestamp converts t to fractional seconds since the epoch.
func Timestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// maxTimestamp is the largest |time| that still fits in UnixNano.
const maxTimestamp = float64(math.MaxInt64 / int64(time.Second))

// IssuedAt converts the command timestamp back to wall-clock time. It reports
// false when the timestamp is not representable.
func (c Command) IssuedAt() (time.Time, bool) {
	if math.IsNaN(c.Time) || math.Abs(c.Time) > maxTimestamp {
		return time.Time{}, false
	}
	return time.Unix(0, int64(c.Time*float64(time.Second))), true
}

type record struct {
	Mode *string  `json:"mode"`
	Time *float64 `json:"time"`
	ID   string   `json:"id"`
}

// decodeCommand parses a record. A missing mode means none and a missing time
// means zero, which can never be newer than an applied command.
func decodeCommand(data []byte) (Command, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	cmd := Command{Mode: mode.None, ID: rec.ID}
	if rec.Mode != nil {
		m, err := mode.Parse(*rec.Mode)
		if err != nil {
			return Command{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
		cmd.Mode = m
	}
	if rec.Time != nil {
		cmd.Time = *rec.Time
	}
	return cmd, nil
}
