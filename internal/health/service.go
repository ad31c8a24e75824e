package health

import (
	"cmp"
	"slices"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Service tracks the health of the external services the app depends on.
// All state is in-memory and resets on restart.
type Service struct {
	items  map[Category]map[string]*Item
	mu     sync.RWMutex
	clock  clockwork.Clock
	logger zerolog.Logger
}

// NewService creates a new health service.
func NewService(clock clockwork.Clock, logger zerolog.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	s := &Service{
		items:  make(map[Category]map[string]*Item),
		clock:  clock,
		logger: logger.With().Str("component", "health").Logger(),
	}
	for _, cat := range AllCategories() {
		s.items[cat] = make(map[string]*Item)
	}
	return s
}

// RegisterItem starts tracking an item with OK status. Registering an
// existing item keeps its status.
func (s *Service) RegisterItem(category Category, id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[category][id]; exists {
		return
	}
	s.items[category][id] = &Item{
		ID:       id,
		Category: category,
		Name:     name,
		Status:   StatusOK,
	}

	s.logger.Debug().
		Str("category", string(category)).
		Str("id", id).
		Msg("Registered health item")
}

// UnregisterItem stops tracking an item.
func (s *Service) UnregisterItem(category Category, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items[category], id)
}

// SetError marks an item as failing.
func (s *Service) SetError(category Category, id, message string) {
	s.setStatus(category, id, StatusError, message)
}

// SetWarning marks an item as degraded.
func (s *Service) SetWarning(category Category, id, message string) {
	s.setStatus(category, id, StatusWarning, message)
}

// ClearStatus marks an item as healthy.
func (s *Service) ClearStatus(category Category, id string) {
	s.setStatus(category, id, StatusOK, "")
}

func (s *Service) setStatus(category Category, id string, status Status, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[category][id]
	if !exists {
		s.logger.Warn().
			Str("category", string(category)).
			Str("id", id).
			Msg("Attempted to update status for unregistered item")
		return
	}

	if item.Status == status && item.Message == message {
		return
	}

	oldStatus := item.Status
	item.Status = status
	item.Message = message
	if status != StatusOK {
		now := s.clock.Now()
		item.Timestamp = &now
	} else {
		item.Timestamp = nil
	}

	s.logger.Info().
		Str("category", string(category)).
		Str("id", id).
		Str("name", item.Name).
		Str("oldStatus", string(oldStatus)).
		Str("newStatus", string(status)).
		Str("message", message).
		Msg("Health status changed")
}

// GetAll returns all health items grouped by category.
func (s *Service) GetAll() *Response {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &Response{
		Providers: s.itemsToSlice(CategoryProviders),
		Backend:   s.itemsToSlice(CategoryBackend),
	}
}

// GetItem returns a copy of a single item, or nil.
func (s *Service) GetItem(category Category, id string) *Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, exists := s.items[category][id]; exists {
		c := *item
		return &c
	}
	return nil
}

// GetSummary returns counts per category.
func (s *Service) GetSummary() *Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &Summary{
		Categories: make([]CategorySummary, 0, len(AllCategories())),
	}

	for _, cat := range AllCategories() {
		catSummary := CategorySummary{Category: cat}
		for _, item := range s.items[cat] {
			switch item.Status {
			case StatusOK:
				catSummary.OK++
			case StatusWarning:
				catSummary.Warning++
			case StatusError:
				catSummary.Error++
			}
		}
		if catSummary.HasIssues() {
			summary.HasIssues = true
		}
		summary.Categories = append(summary.Categories, catSummary)
	}

	return summary
}

// IsHealthy reports whether an item is registered and OK.
func (s *Service) IsHealthy(category Category, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[category][id]
	return exists && item.Status == StatusOK
}

func (s *Service) itemsToSlice(category Category) []Item {
	items := make([]Item, 0, len(s.items[category]))
	for _, item := range s.items[category] {
		items = append(items, *item)
	}
	slices.SortFunc(items, func(a, b Item) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return items
}
