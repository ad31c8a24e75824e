// Package composer holds the working set of a ranking being composed: the
// ordered drafts and the session-wide sort mode that governs their order.
package composer

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/toplist/toplist/internal/apperr"
	"github.com/toplist/toplist/internal/id"
	"github.com/toplist/toplist/internal/media"
)

// SortMode is the strategy governing item order.
type SortMode string

const (
	// SortModeScore keeps items sorted by descending score.
	SortModeScore SortMode = "score"
	// SortModeManual keeps the order the user dragged items into.
	SortModeManual SortMode = "manual"
	// SortModeDate keeps items sorted by ascending release year.
	SortModeDate SortMode = "date"
)

const (
	MinScore = 1
	MaxScore = 10

	idPrefix      = "item"
	maxIDAttempts = 5
)

// Draft is a ranking item that has not been published yet.
type Draft struct {
	ID               string              `json:"id"`
	Title            string              `json:"title"`
	ImageURL         string              `json:"imageUrl,omitempty"`
	LinkURL          string              `json:"linkUrl,omitempty"`
	Score            *int                `json:"score,omitempty"`
	Review           string              `json:"review,omitempty"`
	Media            *media.SearchResult `json:"media,omitempty"`
	IsManualPosition bool                `json:"isManualPosition"`
	AddedAt          time.Time           `json:"addedAt"`

	seq uint64
}

// Position returns the 1-based rank of the draft at index i.
func Position(i int) int {
	return i + 1
}

// Snapshot is a read-only copy of a composition.
type Snapshot struct {
	Items    []Draft  `json:"items"`
	SortMode SortMode `json:"sortMode"`
}

// Option configures a Composition.
type Option func(*Composition)

// WithClock sets the clock used to stamp AddedAt.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Composition) {
		c.clock = clock
	}
}

// WithIDGenerator replaces the draft id generator.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(c *Composition) {
		c.newID = gen
	}
}

// Composition is the ordered set of drafts plus its sort mode.
//
// In score mode the items are sorted by descending score, ties keep
// insertion order, and no item is flagged manual. In manual mode the stored
// order is authoritative and every item is flagged manual.
//
// A Composition is not safe for concurrent use; callers serialize access.
type Composition struct {
	items  []Draft
	mode   SortMode
	added  uint64
	issued map[string]struct{}
	clock  clockwork.Clock
	newID  func() (string, error)
}

// New creates an empty composition in score mode.
func New(opts ...Option) *Composition {
	c := &Composition{
		mode:   SortModeScore,
		issued: make(map[string]struct{}),
		clock:  clockwork.NewRealClock(),
		newID: func() (string, error) {
			return id.Generate(idPrefix)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddItem scores a picked search result and appends it to the set. The
// score is mandatory and must lie within 1-10.
func (c *Composition) AddItem(result media.SearchResult, score int, review string) (Draft, error) {
	if err := validateScore(score); err != nil {
		return Draft{}, err
	}
	if strings.TrimSpace(result.Title) == "" {
		return Draft{}, apperr.ValidationWithFields("title is required", map[string]string{"title": "is required"})
	}
	if err := result.Validate(); err != nil {
		return Draft{}, apperr.Validation(err.Error())
	}

	draftID, err := c.issueID()
	if err != nil {
		return Draft{}, err
	}

	c.added++
	picked := result
	draft := Draft{
		ID:               draftID,
		Title:            result.Title,
		ImageURL:         result.CoverImageURL,
		LinkURL:          result.LinkURL(),
		Score:            &score,
		Review:           strings.TrimSpace(review),
		Media:            &picked,
		IsManualPosition: c.mode == SortModeManual,
		AddedAt:          c.clock.Now(),
		seq:              c.added,
	}

	c.items = append(c.items, draft)
	c.resort()

	return draft, nil
}

// RemoveItem drops the draft with the given id. Unknown ids are ignored.
func (c *Composition) RemoveItem(draftID string) {
	c.items = slices.DeleteFunc(c.items, func(d Draft) bool {
		return d.ID == draftID
	})
}

// UpdateScore changes a draft's score in place. In score mode the set is
// re-sorted; the sort mode itself never changes.
func (c *Composition) UpdateScore(draftID string, score int) error {
	if err := validateScore(score); err != nil {
		return err
	}
	i := c.indexOf(draftID)
	if i < 0 {
		return apperr.NotFoundf("item %s not found", draftID)
	}

	c.items[i].Score = &score
	if c.mode == SortModeScore {
		c.resort()
	}
	return nil
}

// UpdateReview replaces a draft's review text.
func (c *Composition) UpdateReview(draftID, review string) error {
	i := c.indexOf(draftID)
	if i < 0 {
		return apperr.NotFoundf("item %s not found", draftID)
	}
	c.items[i].Review = strings.TrimSpace(review)
	return nil
}

// Reorder moves the item at from to index to and switches the whole set to
// manual mode: every item is flagged as manually positioned, not only the
// moved one.
func (c *Composition) Reorder(from, to int) error {
	n := len(c.items)
	if from < 0 || from >= n || to < 0 || to >= n {
		return apperr.Validationf("reorder from %d to %d is out of range for %d items", from, to, n)
	}

	moved := c.items[from]
	c.items = slices.Delete(c.items, from, from+1)
	c.items = slices.Insert(c.items, to, moved)

	c.mode = SortModeManual
	c.setManual(true)
	return nil
}

// RestoreScoreOrder returns to score mode, clears every manual flag and
// sorts by descending score with ties in insertion order, whatever order
// the user dragged them into. Calling it again changes nothing.
func (c *Composition) RestoreScoreOrder() {
	c.mode = SortModeScore
	c.setManual(false)
	c.resort()
}

// SortByDate switches to date mode: ascending release year, items without a
// year last, manual flags cleared.
func (c *Composition) SortByDate() {
	c.mode = SortModeDate
	c.setManual(false)
	c.resort()
}

// Items returns a copy of the drafts in display order.
func (c *Composition) Items() []Draft {
	return slices.Clone(c.items)
}

// Len returns the number of drafts.
func (c *Composition) Len() int {
	return len(c.items)
}

// Mode returns the current sort mode.
func (c *Composition) Mode() SortMode {
	return c.mode
}

// Item returns the draft with the given id.
func (c *Composition) Item(draftID string) (Draft, bool) {
	i := c.indexOf(draftID)
	if i < 0 {
		return Draft{}, false
	}
	return c.items[i], true
}

// Snapshot returns a copy of the composition.
func (c *Composition) Snapshot() Snapshot {
	items := c.Items()
	if items == nil {
		items = []Draft{}
	}
	return Snapshot{Items: items, SortMode: c.mode}
}

func (c *Composition) indexOf(draftID string) int {
	return slices.IndexFunc(c.items, func(d Draft) bool {
		return d.ID == draftID
	})
}

func (c *Composition) setManual(manual bool) {
	for i := range c.items {
		c.items[i].IsManualPosition = manual
	}
}

func (c *Composition) resort() {
	switch c.mode {
	case SortModeScore:
		slices.SortStableFunc(c.items, byScoreDesc)
	case SortModeDate:
		slices.SortStableFunc(c.items, byReleaseYear)
	}
}

// issueID returns an id never handed out by this composition, even for
// drafts that were removed since.
func (c *Composition) issueID() (string, error) {
	for range maxIDAttempts {
		draftID, err := c.newID()
		if err != nil {
			return "", fmt.Errorf("issue item id: %w", err)
		}
		if _, taken := c.issued[draftID]; taken {
			continue
		}
		c.issued[draftID] = struct{}{}
		return draftID, nil
	}
	return "", fmt.Errorf("issue item id: %d collisions in a row", maxIDAttempts)
}

func validateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return apperr.ValidationWithFields(
			fmt.Sprintf("score must be between %d and %d", MinScore, MaxScore),
			map[string]string{"score": fmt.Sprintf("must be between %d and %d", MinScore, MaxScore)},
		)
	}
	return nil
}

// Unscored drafts sort last.
func byScoreDesc(a, b Draft) int {
	return cmp.Or(
		compareMissingLast(a.Score, b.Score, func(x, y int) int { return cmp.Compare(y, x) }),
		cmp.Compare(a.seq, b.seq),
	)
}

// Drafts without a release year sort last.
func byReleaseYear(a, b Draft) int {
	return cmp.Or(
		compareMissingLast(releaseYear(a), releaseYear(b), cmp.Compare[int]),
		cmp.Compare(a.seq, b.seq),
	)
}

func compareMissingLast(a, b *int, compare func(x, y int) int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return compare(*a, *b)
	}
}

func releaseYear(d Draft) *int {
	if d.Media == nil {
		return nil
	}
	return d.Media.ReleaseYear
}
