package navigation

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyHistory is returned when going back or forward with nothing to go to.
	ErrEmptyHistory = errors.New("empty history")
	// ErrItemNotFound is returned when GoBackTo or GoForwardTo cannot find the target.
	ErrItemNotFound = errors.New("item not found in navigation history")
)

// Direction is the way a navigation moved or tried to move.
type Direction int

const (
	Back Direction = iota
	Forward
)

func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "back"
}

// HistoryError reports an attempt to go back or forward past the end of history.
type HistoryError struct {
	Direction Direction
}

func (e *HistoryError) Error() string {
	if e.Direction == Forward {
		return "cannot go forward with empty forward history"
	}
	return "cannot go back with empty history"
}

func (e *HistoryError) Unwrap() error { return ErrEmptyHistory }

// ItemNotFoundError reports a GoBackTo or GoForwardTo target that is not in
// the relevant part of the history.
type ItemNotFoundError[T any] struct {
	Item      T
	Direction Direction
}

func (e *ItemNotFoundError[T]) Error() string {
	if e.Direction == Forward {
		return fmt.Sprintf("cannot go forward to %v: not in forward history", e.Item)
	}
	return fmt.Sprintf("cannot go back to %v: not in navigation history", e.Item)
}

func (e *ItemNotFoundError[T]) Unwrap() error { return ErrItemNotFound }
