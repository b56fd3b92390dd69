package navigation

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyasagar/pagenav/internal/observable"
)

// snapshot captures everything observable about a stack.
type snapshot struct {
	Visited      []string
	Forward      []string
	Current      string
	HasCurrent   bool
	CanGoBack    bool
	CanGoForward bool
}

func take(s *Stack[string]) snapshot {
	cur, ok := s.Current()
	return snapshot{
		Visited:      s.Items(),
		Forward:      s.Forward(),
		Current:      cur,
		HasCurrent:   ok,
		CanGoBack:    s.CanGoBack(),
		CanGoForward: s.CanGoForward(),
	}
}

// newRecorded returns a stack with the given items navigated to and a
// recorder that only sees notifications sent afterwards.
func newRecorded(t *testing.T, items ...string) (*Stack[string], *observable.Recorder) {
	t.Helper()
	s := NewStack[string]()
	for _, item := range items {
		s.NavigateTo(item)
	}
	rec := &observable.Recorder{}
	s.Subscribe(rec.Handler())
	return s, rec
}

func props(p ...observable.Property) []observable.Property {
	if p == nil {
		return []observable.Property{}
	}
	return p
}

func TestNewStackIsEmpty(t *testing.T) {
	s := NewStack[string]()

	cur, ok := s.Current()
	assert.False(t, ok)
	assert.Equal(t, "", cur)
	assert.Equal(t, 0, s.Count())
	assert.False(t, s.CanGoBack())
	assert.False(t, s.CanGoForward())
	assert.Empty(t, slices.Collect(s.All()))
}

func TestNavigateToSequence(t *testing.T) {
	s := NewStack[string]()
	s.NavigateTo("a")
	s.NavigateTo("b")
	s.NavigateTo("c")

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "c", cur)
	assert.Equal(t, 3, s.Count())
	assert.Equal(t, []string{"a", "b", "c"}, slices.Collect(s.All()))
	assert.True(t, s.CanGoBack())
	assert.False(t, s.CanGoForward())
	assert.Equal(t, "a", s.Item(0))
	assert.Equal(t, "c", s.Item(2))
}

func TestItemOutOfRangePanics(t *testing.T) {
	s := NewStack[string]()
	s.NavigateTo("a")

	assert.Panics(t, func() { s.Item(1) })
	assert.Panics(t, func() { s.Item(-1) })
}

func TestAllIsRestartableSnapshot(t *testing.T) {
	s := NewStack[string]()
	s.NavigateTo("a")
	s.NavigateTo("b")

	seq := s.All()
	s.NavigateTo("c")

	assert.Equal(t, []string{"a", "b"}, slices.Collect(seq))
	assert.Equal(t, []string{"a", "b"}, slices.Collect(seq))
	assert.Equal(t, []string{"a", "b", "c"}, slices.Collect(s.All()))

	var first []string
	for item := range s.All() {
		first = append(first, item)
		break
	}
	assert.Equal(t, []string{"a"}, first)
}

func TestGoBackEmpty(t *testing.T) {
	s, rec := newRecorded(t)
	before := take(s)

	err := s.GoBack()

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyHistory))
	var herr *HistoryError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, Back, herr.Direction)
	assert.Equal(t, "cannot go back with empty history", err.Error())
	assert.Empty(t, cmp.Diff(before, take(s)))
	assert.Empty(t, rec.Properties())
}

func TestGoForwardEmpty(t *testing.T) {
	s, rec := newRecorded(t, "a", "b")
	before := take(s)

	err := s.GoForward()

	require.ErrorIs(t, err, ErrEmptyHistory)
	var herr *HistoryError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, Forward, herr.Direction)
	assert.Contains(t, err.Error(), "forward")
	assert.Empty(t, cmp.Diff(before, take(s)))
	assert.Empty(t, rec.Properties())
}

func TestGoBackThenForwardRoundTrip(t *testing.T) {
	s := NewStack[string]()
	s.NavigateTo("a")
	s.NavigateTo("b")
	s.NavigateTo("c")
	before := take(s)

	require.NoError(t, s.GoBack())
	cur, _ := s.Current()
	assert.Equal(t, "b", cur)
	assert.Equal(t, []string{"c"}, s.Forward())

	require.NoError(t, s.GoForward())
	if diff := cmp.Diff(before, take(s)); diff != "" {
		t.Errorf("state after round trip (-want +got):\n%s", diff)
	}
}

func TestNavigateToClearsForwardHistory(t *testing.T) {
	s := NewStack[string]()
	s.NavigateTo("a")
	s.NavigateTo("b")
	s.NavigateTo("c")
	require.NoError(t, s.GoBack())
	require.True(t, s.CanGoForward())

	s.NavigateTo("d")

	cur, _ := s.Current()
	assert.Equal(t, "d", cur)
	assert.False(t, s.CanGoForward())
	assert.Equal(t, 3, s.Count())
	assert.Equal(t, []string{"a", "b", "d"}, s.Items())
	assert.Empty(t, s.Forward())
}

func TestGoBackToMissingItem(t *testing.T) {
	s, rec := newRecorded(t, "a", "b", "c")
	before := take(s)

	err := s.GoBackTo("z")

	require.ErrorIs(t, err, ErrItemNotFound)
	var nf *ItemNotFoundError[string]
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "z", nf.Item)
	assert.Equal(t, Back, nf.Direction)
	assert.True(t, strings.Contains(err.Error(), "z"))
	assert.Empty(t, cmp.Diff(before, take(s)))
	assert.Empty(t, rec.Properties())
}

func TestGoBackToPopsInOrder(t *testing.T) {
	s := NewStack[string]()
	s.NavigateTo("a")
	s.NavigateTo("b")
	s.NavigateTo("c")

	require.NoError(t, s.GoBackTo("a"))

	assert.Equal(t, []string{"a"}, s.Items())
	// c was popped first, so b is on top of the forward history.
	assert.Equal(t, []string{"b", "c"}, s.Forward())
	cur, _ := s.Current()
	assert.Equal(t, "a", cur)

	require.NoError(t, s.GoForward())
	cur, _ = s.Current()
	assert.Equal(t, "b", cur)
}

func TestGoBackToNearestOccurrence(t *testing.T) {
	s := NewStack[string]()
	for _, item := range []string{"a", "x", "b", "x", "c"} {
		s.NavigateTo(item)
	}

	require.NoError(t, s.GoBackTo("x"))

	assert.Equal(t, []string{"a", "x", "b", "x"}, s.Items())
	assert.Equal(t, []string{"c"}, s.Forward())
}

func TestGoBackToCurrentIsNoop(t *testing.T) {
	s, rec := newRecorded(t, "a", "b")
	before := take(s)

	require.NoError(t, s.GoBackTo("b"))

	assert.Empty(t, cmp.Diff(before, take(s)))
	assert.Empty(t, rec.Properties())
}

func TestGoForwardTo(t *testing.T) {
	s := NewStack[string]()
	for _, item := range []string{"a", "b", "c", "d"} {
		s.NavigateTo(item)
	}
	require.NoError(t, s.GoBackTo("a"))

	require.NoError(t, s.GoForwardTo("c"))

	assert.Equal(t, []string{"a", "b", "c"}, s.Items())
	assert.Equal(t, []string{"d"}, s.Forward())
}

func TestGoForwardToNearestOccurrence(t *testing.T) {
	s := NewStack[string]()
	for _, item := range []string{"a", "x", "b", "x"} {
		s.NavigateTo(item)
	}
	require.NoError(t, s.GoBackTo("a"))
	require.Equal(t, []string{"x", "b", "x"}, s.Forward())

	require.NoError(t, s.GoForwardTo("x"))

	assert.Equal(t, []string{"a", "x"}, s.Items())
	assert.Equal(t, []string{"b", "x"}, s.Forward())
}

func TestGoForwardToItemEqualToCurrent(t *testing.T) {
	s, rec := newRecorded(t, "a", "b", "a")
	require.NoError(t, s.GoBack())
	require.NoError(t, s.GoBack())
	require.Equal(t, []string{"a"}, s.Items())
	require.Equal(t, []string{"b", "a"}, s.Forward())
	rec.Reset()

	// "a" is current, yet the target comes from the forward history.
	require.NoError(t, s.GoForwardTo("a"))

	assert.Equal(t, []string{"a", "b", "a"}, s.Items())
	assert.Equal(t, []string{}, s.Forward())
	assert.Equal(t, props(PropertyCount, PropertyCurrent, PropertyCanGoForward), rec.Properties())
}

func TestGoForwardToMissingItem(t *testing.T) {
	s, rec := newRecorded(t, "a", "b")
	require.NoError(t, s.GoBack())
	rec.Reset()
	before := take(s)

	// "a" is visited but not in the forward history.
	err := s.GoForwardTo("a")

	var nf *ItemNotFoundError[string]
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, Forward, nf.Direction)
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.Empty(t, cmp.Diff(before, take(s)))
	assert.Empty(t, rec.Properties())
}

func TestClear(t *testing.T) {
	s := NewStack[string]()
	s.NavigateTo("a")
	s.NavigateTo("b")
	require.NoError(t, s.GoBack())

	s.Clear()

	assert.Equal(t, 0, s.Count())
	assert.False(t, s.CanGoBack())
	assert.False(t, s.CanGoForward())
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestCustomEquality(t *testing.T) {
	s := NewStackFunc(strings.EqualFold)
	s.NavigateTo("Home")
	s.NavigateTo("About")
	s.NavigateTo("Contact")

	require.NoError(t, s.GoBackTo("HOME"))

	cur, _ := s.Current()
	assert.Equal(t, "Home", cur)
	require.NoError(t, s.GoForwardTo("contact"))
	cur, _ = s.Current()
	assert.Equal(t, "Contact", cur)
}

func TestNewStackFuncNilPanics(t *testing.T) {
	assert.Panics(t, func() { NewStackFunc[string](nil) })
}

func TestNotifications(t *testing.T) {
	tests := []struct {
		name  string
		setup []string
		back  int // GoBack calls after setup
		op    func(s *Stack[string]) error
		want  []observable.Property
	}{
		{
			name: "navigate from empty",
			op:   func(s *Stack[string]) error { s.NavigateTo("x"); return nil },
			want: props(PropertyCount, PropertyCurrent, PropertyCanGoBack),
		},
		{
			name:  "navigate with back history",
			setup: []string{"x"},
			op:    func(s *Stack[string]) error { s.NavigateTo("y"); return nil },
			want:  props(PropertyCount, PropertyCurrent),
		},
		{
			name:  "navigate discards forward history",
			setup: []string{"a", "b"},
			back:  1,
			op:    func(s *Stack[string]) error { s.NavigateTo("c"); return nil },
			want:  props(PropertyCount, PropertyCurrent, PropertyCanGoForward),
		},
		{
			name:  "navigate from fully undone",
			setup: []string{"a"},
			back:  1,
			op:    func(s *Stack[string]) error { s.NavigateTo("b"); return nil },
			want:  props(PropertyCount, PropertyCurrent, PropertyCanGoBack, PropertyCanGoForward),
		},
		{
			name:  "go back first time",
			setup: []string{"a", "b"},
			op:    func(s *Stack[string]) error { return s.GoBack() },
			want:  props(PropertyCount, PropertyCurrent, PropertyCanGoForward),
		},
		{
			name:  "go back again",
			setup: []string{"a", "b", "c"},
			back:  1,
			op:    func(s *Stack[string]) error { return s.GoBack() },
			want:  props(PropertyCount, PropertyCurrent),
		},
		{
			name:  "go back to empty",
			setup: []string{"a"},
			op:    func(s *Stack[string]) error { return s.GoBack() },
			want:  props(PropertyCount, PropertyCurrent, PropertyCanGoBack, PropertyCanGoForward),
		},
		{
			name:  "go forward keeping forward history",
			setup: []string{"a", "b", "c"},
			back:  2,
			op:    func(s *Stack[string]) error { return s.GoForward() },
			want:  props(PropertyCount, PropertyCurrent),
		},
		{
			name:  "go forward to end",
			setup: []string{"a", "b"},
			back:  1,
			op:    func(s *Stack[string]) error { return s.GoForward() },
			want:  props(PropertyCount, PropertyCurrent, PropertyCanGoForward),
		},
		{
			name:  "go forward from empty",
			setup: []string{"a", "b"},
			back:  2,
			op:    func(s *Stack[string]) error { return s.GoForward() },
			want:  props(PropertyCount, PropertyCurrent, PropertyCanGoBack),
		},
		{
			name:  "go back to first",
			setup: []string{"a", "b", "c"},
			op:    func(s *Stack[string]) error { return s.GoBackTo("a") },
			want:  props(PropertyCount, PropertyCurrent, PropertyCanGoForward),
		},
		{
			name:  "go back to with forward history",
			setup: []string{"a", "b", "c", "d"},
			back:  1,
			op:    func(s *Stack[string]) error { return s.GoBackTo("a") },
			want:  props(PropertyCount, PropertyCurrent),
		},
		{
			name:  "go forward to last",
			setup: []string{"a", "b", "c"},
			back:  2,
			op:    func(s *Stack[string]) error { return s.GoForwardTo("c") },
			want:  props(PropertyCount, PropertyCurrent, PropertyCanGoForward),
		},
		{
			name:  "go forward to middle from empty",
			setup: []string{"a", "b", "c"},
			back:  3,
			op:    func(s *Stack[string]) error { return s.GoForwardTo("b") },
			want:  props(PropertyCount, PropertyCurrent, PropertyCanGoBack),
		},
		{
			name: "clear empty",
			op:   func(s *Stack[string]) error { s.Clear(); return nil },
			want: props(),
		},
		{
			name:  "clear back history only",
			setup: []string{"a", "b"},
			op:    func(s *Stack[string]) error { s.Clear(); return nil },
			want:  props(PropertyCount, PropertyCurrent, PropertyCanGoBack),
		},
		{
			name:  "clear both",
			setup: []string{"a", "b"},
			back:  1,
			op:    func(s *Stack[string]) error { s.Clear(); return nil },
			want:  props(PropertyCount, PropertyCurrent, PropertyCanGoBack, PropertyCanGoForward),
		},
		{
			name:  "clear forward history only",
			setup: []string{"a"},
			back:  1,
			op:    func(s *Stack[string]) error { s.Clear(); return nil },
			want:  props(PropertyCanGoForward),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, rec := newRecorded(t, tt.setup...)
			for i := 0; i < tt.back; i++ {
				require.NoError(t, s.GoBack())
			}
			rec.Reset()

			require.NoError(t, tt.op(s))

			got := props(rec.Properties()...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("notifications (-want +got):\n%s", diff)
			}
		})
	}
}

// Every notification must match a derived value that actually changed.
func TestNotificationsMatchChangedValues(t *testing.T) {
	s := NewStack[string]()
	prev := take(s)
	var bad []string
	s.Subscribe(func(sender any, p observable.Property) {
		require.Same(t, s, sender)
		now := take(s)
		changed := map[observable.Property]bool{
			PropertyCount:        len(prev.Visited) != len(now.Visited),
			PropertyCurrent:      prev.Current != now.Current || prev.HasCurrent != now.HasCurrent,
			PropertyCanGoBack:    prev.CanGoBack != now.CanGoBack,
			PropertyCanGoForward: prev.CanGoForward != now.CanGoForward,
		}
		if !changed[p] {
			bad = append(bad, string(p))
		}
	})

	steps := []func(){
		func() { s.NavigateTo("a") },
		func() { s.NavigateTo("b") },
		func() { _ = s.GoBack() },
		func() { _ = s.GoForward() },
		func() { s.NavigateTo("c") },
		func() { _ = s.GoBackTo("a") },
		func() { _ = s.GoForwardTo("c") },
		func() { _ = s.GoBack() },
		func() { _ = s.GoBack() },
		func() { _ = s.GoBack() },
		func() { s.Clear() },
		func() { s.Clear() },
	}
	for _, step := range steps {
		prev = take(s)
		step()
	}

	assert.Empty(t, bad)
}

func TestObserverSeesUpdatedState(t *testing.T) {
	s := NewStack[string]()
	var seen []string
	s.Subscribe(func(_ any, p observable.Property) {
		if p == PropertyCurrent {
			cur, _ := s.Current()
			seen = append(seen, cur)
		}
	})

	s.NavigateTo("a")
	s.NavigateTo("b")
	require.NoError(t, s.GoBack())

	assert.Equal(t, []string{"a", "b", "a"}, seen)
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "back", Back.String())
	assert.Equal(t, "forward", Forward.String())
}
