package store

import (
	"context"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
)

// Stories returns the editorial cards whose app still exists.
func (s *Store) Stories() []models.Story {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Story, 0, len(s.data.Stories))
	for _, st := range s.data.Stories {
		if s.appIndex(st.AppID) >= 0 {
			out = append(out, st)
		}
	}
	return out
}

func (s *Store) Story(id string) (models.Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.data.Stories {
		if st.ID == id && s.appIndex(st.AppID) >= 0 {
			return st, nil
		}
	}
	return models.Story{}, fmt.Errorf("story %s: %w", id, ErrNotFound)
}

func (s *Store) AddStory(ctx context.Context, story models.Story) (models.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.appIndex(story.AppID) < 0 {
		return models.Story{}, fmt.Errorf("app %s: %w", story.AppID, ErrNotFound)
	}
	story.ID = nextID(s.data.Stories, func(st models.Story) string { return st.ID })
	if err := story.Validate(); err != nil {
		return models.Story{}, err
	}

	prev := s.data.Stories
	s.data.Stories = append(append([]models.Story(nil), prev...), story)
	if err := s.persist(ctx, KeyStories); err != nil {
		s.data.Stories = prev
		return models.Story{}, err
	}
	s.publish(Event{Collection: KeyStories, Op: OpCreated, ID: story.ID})
	return story, nil
}

func (s *Store) DeleteStory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.data.Stories
	next := make([]models.Story, 0, len(prev))
	for _, st := range prev {
		if st.ID != id {
			next = append(next, st)
		}
	}
	if len(next) == len(prev) {
		return fmt.Errorf("story %s: %w", id, ErrNotFound)
	}
	s.data.Stories = next
	if err := s.persist(ctx, KeyStories); err != nil {
		s.data.Stories = prev
		return err
	}
	s.publish(Event{Collection: KeyStories, Op: OpDeleted, ID: id})
	return nil
}
