package models

import (
	"time"

	"github.com/google/uuid"
)

// Class types and levels offered by the studio.
const (
	ClassTypeMuayThai     = "muay-thai"
	ClassTypeAerial       = "aerial"
	ClassTypeYoga         = "yoga"
	ClassTypeConditioning = "conditioning"

	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
	LevelAllLevels    = "all-levels"
)

// ClassTemplate is a recurring weekly class slot. Recurrence is implicit: a
// weekday plus a wall-clock time, with no stored calendar instances.
type ClassTemplate struct {
	ID              uuid.UUID    `json:"id"`
	Name            string       `json:"name"`
	Type            string       `json:"type"`
	Instructor      string       `json:"instructor"`
	Level           string       `json:"level"`
	Description     string       `json:"description,omitempty"`
	Weekday         time.Weekday `json:"weekday"`
	WallClockTime   string       `json:"time"`
	DurationMinutes int          `json:"durationMinutes"`
	Capacity        int          `json:"capacity"`
	BookedCount     int          `json:"bookedCount"`
	CreditsRequired int          `json:"creditsRequired"`
	Active          bool         `json:"active"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}
