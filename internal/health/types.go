package health

import (
	"encoding/json"
	"time"
)

// Status represents the health state of an item.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Category groups health items.
type Category string

const (
	CategoryProviders Category = "providers"
	CategoryBackend   Category = "backend"
)

// AllCategories returns all health categories in display order.
func AllCategories() []Category {
	return []Category{CategoryProviders, CategoryBackend}
}

// Item is a single health-tracked dependency.
type Item struct {
	ID        string     `json:"id"`
	Category  Category   `json:"category"`
	Name      string     `json:"name"`
	Status    Status     `json:"status"`
	Message   string     `json:"message,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// MarshalJSON omits message and timestamp for OK items.
func (h Item) MarshalJSON() ([]byte, error) {
	type Alias Item
	alias := Alias(h)

	if h.Status == StatusOK {
		alias.Timestamp = nil
		alias.Message = ""
	}

	return json.Marshal(alias)
}

// CategorySummary provides counts for a health category.
type CategorySummary struct {
	Category Category `json:"category"`
	OK       int      `json:"ok"`
	Warning  int      `json:"warning"`
	Error    int      `json:"error"`
}

// HasIssues returns true if there are any warning or error items.
func (c CategorySummary) HasIssues() bool {
	return c.Warning > 0 || c.Error > 0
}

// Response contains all health items grouped by category.
type Response struct {
	Providers []Item `json:"providers"`
	Backend   []Item `json:"backend"`
}

// Summary provides an overview of system health.
type Summary struct {
	Categories []CategorySummary `json:"categories"`
	HasIssues  bool              `json:"hasIssues"`
}
