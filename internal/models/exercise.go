package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// BodyPart groups exercises by the muscle area they train.
type BodyPart string

const (
	BodyPartChest     BodyPart = "chest"
	BodyPartBack      BodyPart = "back"
	BodyPartLegs      BodyPart = "legs"
	BodyPartShoulders BodyPart = "shoulders"
	BodyPartArms      BodyPart = "arms"
	BodyPartGlutes    BodyPart = "glutes"
	BodyPartCore      BodyPart = "core"
	BodyPartFullBody  BodyPart = "fullBody"
	BodyPartOther     BodyPart = "other"
)

// BodyParts lists every body part in display order.
var BodyParts = []BodyPart{
	BodyPartChest, BodyPartBack, BodyPartLegs, BodyPartShoulders,
	BodyPartArms, BodyPartGlutes, BodyPartCore, BodyPartFullBody, BodyPartOther,
}

// ParseBodyPart returns the body part for a raw value. Stored rows may carry
// values from older schema versions, so unknown values fall back to "other";
// use Valid to reject them on input.
func ParseBodyPart(raw string) BodyPart {
	for _, bp := range BodyParts {
		if strings.EqualFold(raw, string(bp)) {
			return bp
		}
	}
	return BodyPartOther
}

// Valid reports whether b is one of the known body parts.
func (b BodyPart) Valid() bool {
	for _, bp := range BodyParts {
		if b == bp {
			return true
		}
	}
	return false
}

// Exercise is a catalog entry. Presets are seeded by the server and carry a
// seed key; user-created exercises never do.
type Exercise struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	BodyPart          BodyPart   `json:"body_part"`
	DefaultWeightUnit WeightUnit `json:"default_weight_unit"`
	IsPreset          bool       `json:"is_preset"`
	SeedKey           *string    `json:"seed_key,omitempty"`
	SeedVersion       int        `json:"seed_version"`
	IsArchived        bool       `json:"is_archived"`
	PresetSortKey     int        `json:"-"`
}

// NewUserExercise builds a user-created exercise with a fresh ID.
func NewUserExercise(name string, bodyPart BodyPart, unit WeightUnit) Exercise {
	return Exercise{
		ID:                uuid.New(),
		Name:              name,
		BodyPart:          bodyPart,
		DefaultWeightUnit: unit,
		PresetSortKey:     1,
	}
}

// Validate checks the preset/seed key invariant and required fields.
func (e Exercise) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("exercise name is required")
	}
	if !e.BodyPart.Valid() {
		return fmt.Errorf("unknown body part %q", e.BodyPart)
	}
	if !e.DefaultWeightUnit.Valid() {
		return fmt.Errorf("unknown weight unit %q", e.DefaultWeightUnit)
	}
	hasKey := e.SeedKey != nil && *e.SeedKey != ""
	if e.IsPreset && !hasKey {
		return fmt.Errorf("preset exercise %q must have a seed key", e.Name)
	}
	if !e.IsPreset && e.SeedKey != nil {
		return fmt.Errorf("user exercise %q must not have a seed key", e.Name)
	}
	return nil
}
