package domain

import "fmt"

// Entry is one persisted catalog record describing a submitted creature.
// IDs are string-encoded positive integers assigned by the catalog
// repository; ImagePath is relative to the media root and is the only
// link between a record and its backing blob.
type Entry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Hint        string `json:"hint"`
	RaceJob     string `json:"race_job"`
	Appearance  string `json:"appearance"`
	Personality string `json:"personality"`
	Ability     string `json:"ability"`
	Description string `json:"description"`
	ImagePath   string `json:"image_path"`
	CreatedAt   int64  `json:"created_at"`
}

// GeneratedProfile holds the creature metadata derived from a model
// response. Fields the model omitted stay empty and are filled with
// placeholders when the entry is assembled.
type GeneratedProfile struct {
	Name        string `json:"name"`
	RaceJob     string `json:"race_job"`
	Appearance  string `json:"appearance"`
	Personality string `json:"personality"`
	Ability     string `json:"ability"`
	Description string `json:"description"`
	Hint        string `json:"hint"`
}

// PlaceholderProfile returns the deterministic profile used when no
// generation credential is configured.
func PlaceholderProfile(name, hint string) GeneratedProfile {
	if hint == "" {
		hint = "none"
	}
	return GeneratedProfile{
		Name:        name,
		RaceJob:     "-",
		Appearance:  "-",
		Personality: "-",
		Ability:     "-",
		Description: fmt.Sprintf("Dex description for %s (placeholder). Hint: %s", name, hint),
	}
}

// NewEntry assembles a catalog entry from the submitted fields and a
// generated profile, applying the documented defaults for absent fields.
func NewEntry(id, name, hint, imagePath string, createdAt int64, p GeneratedProfile) Entry {
	return Entry{
		ID:          id,
		Name:        orDefault(p.Name, name),
		Hint:        hint,
		RaceJob:     orDefault(p.RaceJob, "-"),
		Appearance:  orDefault(p.Appearance, "-"),
		Personality: orDefault(p.Personality, "-"),
		Ability:     orDefault(p.Ability, "-"),
		Description: p.Description,
		ImagePath:   imagePath,
		CreatedAt:   createdAt,
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
