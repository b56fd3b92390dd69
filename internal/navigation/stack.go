// Package navigation implements a browser-style back/forward history of
// places, with change notification for the values a UI binds to.
package navigation

import (
	"iter"

	"github.com/vidyasagar/pagenav/internal/observable"
)

// Properties reported by Stack notifications.
const (
	PropertyCount        observable.Property = "Count"
	PropertyCurrent      observable.Property = "Current"
	PropertyCanGoBack    observable.Property = "CanGoBack"
	PropertyCanGoForward observable.Property = "CanGoForward"
)

// Stack is a navigation history made of two stacks: the places visited,
// oldest first and ending with the current place, and the places gone back
// past, which GoForward returns to. Any NavigateTo discards the latter.
//
// Every mutation notifies subscribers once for each of Count, Current,
// CanGoBack and CanGoForward whose value changed, after the state is updated
// and before the method returns.
//
// A Stack is not safe for concurrent use.
type Stack[T any] struct {
	observable.Notifier

	visited []T
	undone  []T // top is the last element
	equal   func(a, b T) bool
}

// NewStack creates an empty history comparing items with ==.
func NewStack[T comparable]() *Stack[T] {
	return NewStackFunc(func(a, b T) bool { return a == b })
}

// NewStackFunc creates an empty history comparing items with equal.
func NewStackFunc[T any](equal func(a, b T) bool) *Stack[T] {
	if equal == nil {
		panic("navigation: nil equality function")
	}
	return &Stack[T]{equal: equal}
}

// Item returns the visited item at index i, 0 being the oldest. It panics if
// i is out of range.
func (s *Stack[T]) Item(i int) T {
	return s.visited[i]
}

// Count returns the number of visited items, including the current one.
func (s *Stack[T]) Count() int {
	return len(s.visited)
}

// Current returns the current item and true, or the zero value and false
// when the history is empty.
func (s *Stack[T]) Current() (T, bool) {
	if len(s.visited) == 0 {
		var zero T
		return zero, false
	}
	return s.visited[len(s.visited)-1], true
}

// CanGoBack reports whether GoBack would succeed.
func (s *Stack[T]) CanGoBack() bool {
	return len(s.visited) > 0
}

// CanGoForward reports whether GoForward would succeed.
func (s *Stack[T]) CanGoForward() bool {
	return len(s.undone) > 0
}

// All iterates over the visited items, oldest first, as they were when All
// was called.
func (s *Stack[T]) All() iter.Seq[T] {
	snapshot := s.Items()
	return func(yield func(T) bool) {
		for _, item := range snapshot {
			if !yield(item) {
				return
			}
		}
	}
}

// Items returns a copy of the visited items, oldest first.
func (s *Stack[T]) Items() []T {
	out := make([]T, len(s.visited))
	copy(out, s.visited)
	return out
}

// Forward returns a copy of the forward history, the item GoForward would
// return to first.
func (s *Stack[T]) Forward() []T {
	out := make([]T, len(s.undone))
	for i, item := range s.undone {
		out[len(s.undone)-1-i] = item
	}
	return out
}

// NavigateTo makes item the current place and drops all forward history.
func (s *Stack[T]) NavigateTo(item T) {
	couldGoBack := s.CanGoBack()
	couldGoForward := s.CanGoForward()

	s.visited = append(s.visited, item)
	clear(s.undone)
	s.undone = s.undone[:0]

	s.notifyMoved()
	if !couldGoBack {
		s.Notify(s, PropertyCanGoBack)
	}
	if couldGoForward {
		s.Notify(s, PropertyCanGoForward)
	}
}

// GoBack moves the current item to the forward history.
func (s *Stack[T]) GoBack() error {
	if !s.CanGoBack() {
		return &HistoryError{Direction: Back}
	}
	couldGoForward := s.CanGoForward()

	s.undone = append(s.undone, pop(&s.visited))

	s.notifyBack(couldGoForward)
	return nil
}

// GoForward makes the most recently left item current again.
func (s *Stack[T]) GoForward() error {
	if !s.CanGoForward() {
		return &HistoryError{Direction: Forward}
	}
	couldGoBack := s.CanGoBack()

	s.visited = append(s.visited, pop(&s.undone))

	s.notifyForward(couldGoBack)
	return nil
}

// GoBackTo goes back until item is current. If item was visited more than
// once, the occurrence nearest the current item is used. Going back to the
// current item is a no-op.
func (s *Stack[T]) GoBackTo(item T) error {
	i := indexFromTop(s.visited, item, s.equal)
	if i < 0 {
		return &ItemNotFoundError[T]{Item: item, Direction: Back}
	}
	if i == len(s.visited)-1 {
		return nil
	}
	couldGoForward := s.CanGoForward()

	for len(s.visited) > i+1 {
		s.undone = append(s.undone, pop(&s.visited))
	}

	s.notifyBack(couldGoForward)
	return nil
}

// GoForwardTo goes forward until item is current, using the nearest
// occurrence in the forward history. The item is always taken from the
// forward history, even when the current item equals it.
func (s *Stack[T]) GoForwardTo(item T) error {
	if indexFromTop(s.undone, item, s.equal) < 0 {
		return &ItemNotFoundError[T]{Item: item, Direction: Forward}
	}
	couldGoBack := s.CanGoBack()

	for {
		next := pop(&s.undone)
		s.visited = append(s.visited, next)
		if s.equal(next, item) {
			break
		}
	}

	s.notifyForward(couldGoBack)
	return nil
}

// Clear empties the history. Count and Current are only notified when there
// was a current item; the forward history does not affect them.
func (s *Stack[T]) Clear() {
	couldGoBack := s.CanGoBack()
	couldGoForward := s.CanGoForward()

	clear(s.visited)
	s.visited = s.visited[:0]
	clear(s.undone)
	s.undone = s.undone[:0]

	if couldGoBack {
		s.notifyMoved()
		s.Notify(s, PropertyCanGoBack)
	}
	if couldGoForward {
		s.Notify(s, PropertyCanGoForward)
	}
}

func (s *Stack[T]) notifyMoved() {
	s.Notify(s, PropertyCount)
	s.Notify(s, PropertyCurrent)
}

func (s *Stack[T]) notifyBack(couldGoForward bool) {
	s.notifyMoved()
	if !s.CanGoBack() {
		s.Notify(s, PropertyCanGoBack)
	}
	if !couldGoForward {
		s.Notify(s, PropertyCanGoForward)
	}
}

func (s *Stack[T]) notifyForward(couldGoBack bool) {
	s.notifyMoved()
	if !couldGoBack {
		s.Notify(s, PropertyCanGoBack)
	}
	if !s.CanGoForward() {
		s.Notify(s, PropertyCanGoForward)
	}
}

func pop[T any](items *[]T) T {
	last := len(*items) - 1
	item := (*items)[last]
	var zero T
	(*items)[last] = zero
	*items = (*items)[:last]
	return item
}

// indexFromTop returns the index of the occurrence of item nearest the end
// of items, or -1.
func indexFromTop[T any](items []T, item T, equal func(a, b T) bool) int {
	for i := len(items) - 1; i >= 0; i-- {
		if equal(items[i], item) {
			return i
		}
	}
	return -1
}
