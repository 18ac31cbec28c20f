// Package content defines the superset profile content schema shared by every tier.
//
// Every tier-specific section is optional. Tier gating is a presentation concern; see
// DisallowedSections for the policy hook used when strict enforcement is configured.
package content

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/legacy-registry/profile-api/internal/domain"
)

// Content is the validated profile content blob.
type Content struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	Tagline    string `json:"tagline,omitempty" validate:"max=160"`
	Bio        string `json:"bio,omitempty" validate:"omitempty,min=50,max=2000"`
	HeroImage  string `json:"hero_image,omitempty" validate:"omitempty,url"`
	Location   string `json:"location,omitempty" validate:"max=120"`
	Profession string `json:"profession,omitempty" validate:"max=120"`

	Links                []Link                `json:"links,omitempty" validate:"max=20,dive"`
	Media                []MediaItem           `json:"media,omitempty" validate:"max=50,dive"`
	Achievements         []Achievement         `json:"achievements,omitempty" validate:"max=50,dive"`
	Milestones           []Milestone           `json:"milestones,omitempty" validate:"max=50,dive"`
	LeadershipHighlights []LeadershipHighlight `json:"leadership_highlights,omitempty" validate:"max=30,dive"`
	Timeline             []TimelineEntry       `json:"timeline,omitempty" validate:"max=100,dive"`
	Tributes             []Tribute             `json:"tributes,omitempty" validate:"max=50,dive"`
	Awards               []Award               `json:"awards,omitempty" validate:"max=50,dive"`
	Publications         []Publication         `json:"publications,omitempty" validate:"max=50,dive"`
	Quotes               []Quote               `json:"quotes,omitempty" validate:"max=30,dive"`
	LegacyStatement      string                `json:"legacy_statement,omitempty" validate:"max=5000"`

	Sections map[domain.Section]SectionSettings `json:"sections,omitempty"`
}

// Clone returns a deep copy of c.
func (c Content) Clone() Content {
	out := c
	out.Links = slices.Clone(c.Links)
	out.Media = slices.Clone(c.Media)
	out.Achievements = slices.Clone(c.Achievements)
	for i := range out.Achievements {
		out.Achievements[i].Year = cloneYear(out.Achievements[i].Year)
	}
	out.Milestones = slices.Clone(c.Milestones)
	for i := range out.Milestones {
		out.Milestones[i].Year = cloneYear(out.Milestones[i].Year)
	}
	out.LeadershipHighlights = slices.Clone(c.LeadershipHighlights)
	for i := range out.LeadershipHighlights {
		h := &out.LeadershipHighlights[i]
		h.StartYear = cloneYear(h.StartYear)
		h.EndYear = cloneYear(h.EndYear)
	}
	out.Timeline = slices.Clone(c.Timeline)
	out.Tributes = slices.Clone(c.Tributes)
	out.Awards = slices.Clone(c.Awards)
	for i := range out.Awards {
		out.Awards[i].Year = cloneYear(out.Awards[i].Year)
	}
	out.Publications = slices.Clone(c.Publications)
	for i := range out.Publications {
		out.Publications[i].Year = cloneYear(out.Publications[i].Year)
	}
	out.Quotes = slices.Clone(c.Quotes)
	out.Sections = maps.Clone(c.Sections)
	return out
}

func cloneYear(y *int) *int {
	if y == nil {
		return nil
	}
	v := *y
	return &v
}

type Link struct {
	Label    string `json:"label,omitempty" validate:"max=80"`
	URL      string `json:"url" validate:"required,url"`
	Platform string `json:"platform,omitempty" validate:"max=40"`
}

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// MediaItem belongs to exactly one profile's content blob.
type MediaItem struct {
	URL      string    `json:"url" validate:"required,url"`
	Caption  string    `json:"caption,omitempty" validate:"max=500"`
	Type     MediaType `json:"type" validate:"required,oneof=image video"`
	Order    int       `json:"order" validate:"min=0"`
	Featured bool      `json:"featured,omitempty"`
}

type Achievement struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=1000"`
	Year        *int   `json:"year,omitempty" validate:"omitempty,year"`
}

type Milestone struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=1000"`
	Year        *int   `json:"year,omitempty" validate:"omitempty,year"`
}

type LeadershipHighlight struct {
	Role         string `json:"role" validate:"required,max=120"`
	Organization string `json:"organization" validate:"required,max=160"`
	Description  string `json:"description,omitempty" validate:"max=1000"`
	StartYear    *int   `json:"start_year,omitempty" validate:"omitempty,year"`
	EndYear      *int   `json:"end_year,omitempty" validate:"omitempty,year"`
}

type TimelineEntry struct {
	Year        int    `json:"year" validate:"year"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=1000"`
}

type Tribute struct {
	Author       string `json:"author" validate:"required,max=120"`
	Relationship string `json:"relationship,omitempty" validate:"max=120"`
	Message      string `json:"message" validate:"required,max=2000"`
}

type Award struct {
	Name   string `json:"name" validate:"required,max=200"`
	Issuer string `json:"issuer,omitempty" validate:"max=200"`
	Year   *int   `json:"year,omitempty" validate:"omitempty,year"`
}

type Publication struct {
	Title     string `json:"title" validate:"required,max=300"`
	Publisher string `json:"publisher,omitempty" validate:"max=200"`
	Year      *int   `json:"year,omitempty" validate:"omitempty,year"`
	URL       string `json:"url,omitempty" validate:"omitempty,url"`
}

type Quote struct {
	Text    string `json:"text" validate:"required,max=500"`
	Context string `json:"context,omitempty" validate:"max=200"`
}

// SectionSettings controls section rendering. Omitted flags default to true.
type SectionSettings struct {
	Visible         bool `json:"visible"`
	AutoHideIfEmpty bool `json:"auto_hide_if_empty"`
}

func DefaultSectionSettings() SectionSettings {
	return SectionSettings{Visible: true, AutoHideIfEmpty: true}
}

func (s *SectionSettings) UnmarshalJSON(b []byte) error {
	var aux struct {
		Visible         *bool `json:"visible"`
		AutoHideIfEmpty *bool `json:"auto_hide_if_empty"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*s = DefaultSectionSettings()
	if aux.Visible != nil {
		s.Visible = *aux.Visible
	}
	if aux.AutoHideIfEmpty != nil {
		s.AutoHideIfEmpty = *aux.AutoHideIfEmpty
	}
	return nil
}
