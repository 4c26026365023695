// Package catalog holds the fixed storefront category list.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Pseudo-categories understood by the storefront filters.
const (
	All    = "all"
	Mature = "mature"
)

type Category struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Icon   string `json:"icon"`
	Mature bool   `json:"mature,omitempty"`
}

type categoriesFile struct {
	Categories []Category `json:"categories"`
}

// Registry keeps categories in registration order.
type Registry struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*Category
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Category)}
}

// Default returns the built-in category list.
func Default() *Registry {
	r := NewRegistry()
	for _, c := range []Category{
		{ID: All, Name: "All Apps", Icon: "grid"},
		{ID: "games", Name: "Games", Icon: "gamepad"},
		{ID: "productivity", Name: "Productivity", Icon: "briefcase"},
		{ID: "social", Name: "Social", Icon: "users"},
		{ID: "education", Name: "Education", Icon: "book"},
		{ID: "entertainment", Name: "Entertainment", Icon: "film"},
		{ID: "utilities", Name: "Utilities", Icon: "wrench"},
		{ID: "health", Name: "Health & Fitness", Icon: "heart"},
		{ID: "music", Name: "Music", Icon: "music"},
		{ID: "photo", Name: "Photo & Video", Icon: "camera"},
		{ID: "finance", Name: "Finance", Icon: "wallet"},
		{ID: Mature, Name: "Mature", Icon: "shield", Mature: true},
	} {
		c := c
		r.Register(&c)
	}
	return r
}

// LoadFromFile reads a {"categories": [...]} document. An empty path yields
// the defaults.
func LoadFromFile(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}

	var file categoriesFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse categories: %w", err)
	}
	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("categories file %s is empty", path)
	}

	r := NewRegistry()
	for i := range file.Categories {
		if file.Categories[i].ID == "" {
			return nil, fmt.Errorf("category %d has no id", i)
		}
		r.Register(&file.Categories[i])
	}
	// The pseudo-categories are always present.
	if !r.Exists(All) {
		r.Register(&Category{ID: All, Name: "All Apps"})
	}
	if !r.Exists(Mature) {
		r.Register(&Category{ID: Mature, Name: "Mature", Mature: true})
	}
	return r, nil
}

func (r *Registry) Register(c *Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := strings.ToLower(c.ID)
	if _, ok := r.byID[id]; !ok {
		r.order = append(r.order, id)
	}
	r.byID[id] = c
}

func (r *Registry) Get(id string) *Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[strings.ToLower(id)]
}

func (r *Registry) Exists(id string) bool {
	return r.Get(id) != nil
}

// Assignable reports whether an app may be filed under id. The pseudo
// categories are filters, not destinations.
func (r *Registry) Assignable(id string) bool {
	id = strings.ToLower(strings.TrimSpace(id))
	return id != All && id != Mature && r.Exists(id)
}

func (r *Registry) All() []Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Category, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, *r.byID[id])
	}
	return result
}
