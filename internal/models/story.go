package models

import "fmt"

type StoryType string

const (
	StoryFeatured   StoryType = "featured"
	StoryCollection StoryType = "collection"
	StoryGameOfDay  StoryType = "game_of_day"
)

func (t StoryType) Valid() bool {
	switch t {
	case StoryFeatured, StoryCollection, StoryGameOfDay:
		return true
	}
	return false
}

// Story is an editorial card on the storefront pointing at one app.
type Story struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	AppID       string    `json:"appId"`
	Type        StoryType `json:"type"`
}

func (s *Story) Validate() error {
	switch {
	case s.ID == "":
		return fmt.Errorf("story: missing id")
	case s.Title == "":
		return fmt.Errorf("story %s: missing title", s.ID)
	case s.AppID == "":
		return fmt.Errorf("story %s: missing appId", s.ID)
	case !s.Type.Valid():
		return fmt.Errorf("story %s: invalid type %q", s.ID, s.Type)
	}
	return nil
}
