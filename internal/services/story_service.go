package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/dto"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/session"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/store"
)

type StoryService struct {
	store *store.Store
}

func NewStoryService(st *store.Store) *StoryService {
	return &StoryService{store: st}
}

// List returns the stories whose app is still in the store and visible to
// sess under the storefront rules.
func (s *StoryService) List(sess *session.Session) []models.Story {
	stories := s.store.Stories()
	out := make([]models.Story, 0, len(stories))
	for _, st := range stories {
		if s.visible(sess, st) == nil {
			out = append(out, st)
		}
	}
	return out
}

func (s *StoryService) Get(sess *session.Session, id string) (models.Story, error) {
	st, err := s.store.Story(id)
	if err != nil {
		return models.Story{}, err
	}
	if err := s.visible(sess, st); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Story{}, fmt.Errorf("story %s: %w", id, store.ErrNotFound)
		}
		return models.Story{}, err
	}
	return st, nil
}

func (s *StoryService) visible(sess *session.Session, st models.Story) error {
	app, err := s.store.App(st.AppID)
	if err != nil {
		return err
	}
	return checkVisible(sess, app)
}

func (s *StoryService) Create(ctx context.Context, req *dto.StoryRequest) (models.Story, error) {
	var v ValidationError
	if strings.TrimSpace(req.Title) == "" {
		v.Add("title", "Title is required")
	}
	if strings.TrimSpace(req.AppID) == "" {
		v.Add("appId", "App is required")
	}
	storyType := models.StoryType(req.Type)
	if storyType == "" {
		storyType = models.StoryFeatured
	}
	if !storyType.Valid() {
		v.Add("type", "Type must be featured, collection or game_of_day")
	}
	if req.Image != "" && !isHTTPURL(req.Image) && !strings.HasPrefix(req.Image, "data:") {
		v.Add("image", "Must be an http(s) URL or a data URI")
	}
	if err := v.Err(); err != nil {
		return models.Story{}, err
	}

	return s.store.AddStory(ctx, models.Story{
		Title:       strings.TrimSpace(req.Title),
		Subtitle:    req.Subtitle,
		Description: req.Description,
		Image:       req.Image,
		AppID:       req.AppID,
		Type:        storyType,
	})
}

func (s *StoryService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteStory(ctx, id)
}
