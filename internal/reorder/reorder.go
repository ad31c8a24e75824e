// Package reorder turns pointer drags and keyboard moves into reorder calls.
// Both input paths end in the same Reorderer.Reorder call, made exactly once
// per completed gesture that changed an item's position.
package reorder

import (
	"errors"
	"fmt"

	"github.com/toplist/toplist/internal/apperr"
)

var (
	ErrGestureFinished = errors.New("gesture already finished")
	ErrUnknownMove     = errors.New("unknown keyboard move")
	ErrUnknownKind     = errors.New("unknown gesture kind")
)

// Reorderer is the ordered collection a Surface drives.
type Reorderer interface {
	Len() int
	Reorder(from, to int) error
}

// Surface exposes every item of a Reorderer as a draggable handle. At most
// one gesture is active; starting a new one cancels the previous.
//
// A Surface is not safe for concurrent use.
type Surface struct {
	target Reorderer
	onDrop func(from, to int)
	active *gesture
}

// Option configures a Surface.
type Option func(*Surface)

// WithDropHook registers fn to run after every successful reorder.
func WithDropHook(fn func(from, to int)) Option {
	return func(s *Surface) {
		s.onDrop = fn
	}
}

// NewSurface creates a surface over target.
func NewSurface(target Reorderer, opts ...Option) *Surface {
	s := &Surface{target: target}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type gesture struct {
	surface *Surface
	origin  int
	current int
	done    bool
}

func (s *Surface) begin(index int) (*gesture, error) {
	if n := s.target.Len(); index < 0 || index >= n {
		return nil, apperr.Validationf("item %d is out of range for %d items", index, n)
	}
	if s.active != nil {
		s.active.cancel()
	}
	g := &gesture{surface: s, origin: index, current: index}
	s.active = g
	return g, nil
}

func (g *gesture) moveTo(index int) int {
	if g.done {
		return g.current
	}
	g.current = max(0, min(index, g.surface.target.Len()-1))
	return g.current
}

// complete reports whether the collection changed.
func (g *gesture) complete() (bool, error) {
	if g.done {
		return false, ErrGestureFinished
	}
	g.done = true
	if g.surface.active == g {
		g.surface.active = nil
	}

	if g.current == g.origin {
		return false, nil
	}
	if err := g.surface.target.Reorder(g.origin, g.current); err != nil {
		return false, err
	}
	if g.surface.onDrop != nil {
		g.surface.onDrop(g.origin, g.current)
	}
	return true, nil
}

func (g *gesture) cancel() {
	g.done = true
	if g.surface.active == g {
		g.surface.active = nil
	}
}

// Drag is a pointer gesture.
type Drag struct {
	g *gesture
}

// BeginDrag picks up the item at index with the pointer.
func (s *Surface) BeginDrag(index int) (*Drag, error) {
	g, err := s.begin(index)
	if err != nil {
		return nil, err
	}
	return &Drag{g: g}, nil
}

// Over moves the drag over the slot at index and returns the clamped slot.
func (d *Drag) Over(index int) int {
	return d.g.moveTo(index)
}

// Drop releases the item over its current slot.
func (d *Drag) Drop() (bool, error) {
	return d.g.complete()
}

// Cancel abandons the drag. Nothing is reordered.
func (d *Drag) Cancel() {
	d.g.cancel()
}

// KeyboardDrag is a keyboard gesture: pick up, step, commit.
type KeyboardDrag struct {
	g *gesture
}

// Pickup picks up the item at index with the keyboard.
func (s *Surface) Pickup(index int) (*KeyboardDrag, error) {
	g, err := s.begin(index)
	if err != nil {
		return nil, err
	}
	return &KeyboardDrag{g: g}, nil
}

// MoveUp moves the item one slot toward the top and returns its slot.
func (k *KeyboardDrag) MoveUp() int {
	return k.g.moveTo(k.g.current - 1)
}

// MoveDown moves the item one slot toward the bottom and returns its slot.
func (k *KeyboardDrag) MoveDown() int {
	return k.g.moveTo(k.g.current + 1)
}

// Commit drops the item at its current slot.
func (k *KeyboardDrag) Commit() (bool, error) {
	return k.g.complete()
}

// Cancel puts the item back. Nothing is reordered.
func (k *KeyboardDrag) Cancel() {
	k.g.cancel()
}

// Kind selects the input path of a recorded gesture.
type Kind string

const (
	KindPointer  Kind = "pointer"
	KindKeyboard Kind = "keyboard"
)

// Keyboard moves.
const (
	MoveUp   = "up"
	MoveDown = "down"
)

// Gesture is a complete recorded gesture, as sent by a client.
type Gesture struct {
	Kind Kind `json:"kind"`
	From int  `json:"from"`
	// Over lists the slots a pointer passed over; the last one is the drop slot.
	Over []int `json:"over,omitempty"`
	// Moves lists keyboard steps, "up" or "down".
	Moves  []string `json:"moves,omitempty"`
	Cancel bool     `json:"cancel,omitempty"`
}

// Outcome describes what a replayed gesture did.
type Outcome struct {
	Moved bool `json:"moved"`
	From  int  `json:"from"`
	To    int  `json:"to"`
}

// Replay runs a recorded gesture through the matching input path.
func (s *Surface) Replay(gs Gesture) (Outcome, error) {
	switch gs.Kind {
	case KindPointer:
		return s.replayPointer(gs)
	case KindKeyboard:
		return s.replayKeyboard(gs)
	default:
		return Outcome{}, apperr.Validation(fmt.Errorf("%w: %q", ErrUnknownKind, gs.Kind).Error())
	}
}

func (s *Surface) replayPointer(gs Gesture) (Outcome, error) {
	drag, err := s.BeginDrag(gs.From)
	if err != nil {
		return Outcome{}, err
	}
	to := gs.From
	for _, slot := range gs.Over {
		to = drag.Over(slot)
	}
	if gs.Cancel {
		drag.Cancel()
		return Outcome{From: gs.From, To: gs.From}, nil
	}
	moved, err := drag.Drop()
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Moved: moved, From: gs.From, To: to}, nil
}

func (s *Surface) replayKeyboard(gs Gesture) (Outcome, error) {
	for _, move := range gs.Moves {
		if move != MoveUp && move != MoveDown {
			return Outcome{}, apperr.Validation(fmt.Errorf("%w: %q", ErrUnknownMove, move).Error())
		}
	}

	kd, err := s.Pickup(gs.From)
	if err != nil {
		return Outcome{}, err
	}
	to := gs.From
	for _, move := range gs.Moves {
		if move == MoveUp {
			to = kd.MoveUp()
		} else {
			to = kd.MoveDown()
		}
	}
	if gs.Cancel {
		kd.Cancel()
		return Outcome{From: gs.From, To: gs.From}, nil
	}
	moved, err := kd.Commit()
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Moved: moved, From: gs.From, To: to}, nil
}
