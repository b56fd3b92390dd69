// Package observable provides named property-change notification for types
// that UI layers bind to.
package observable

// Property names an attribute whose value changed.
type Property string

// Handler is called once per changed property. sender is the object whose
// property changed.
type Handler func(sender any, p Property)

// Notifier keeps a list of subscribed handlers. The zero value is ready to use.
// It is not safe for concurrent use.
type Notifier struct {
	handlers []*subscription
}

type subscription struct {
	fn Handler
}

// Subscribe registers h and returns a function that removes it again.
// Calling the returned function more than once is a no-op.
func (n *Notifier) Subscribe(h Handler) (cancel func()) {
	if h == nil {
		return func() {}
	}
	sub := &subscription{fn: h}
	n.handlers = append(n.handlers, sub)
	return func() {
		for i, s := range n.handlers {
			if s == sub {
				n.handlers = append(n.handlers[:i:i], n.handlers[i+1:]...)
				return
			}
		}
	}
}

// Notify calls every subscribed handler in subscription order.
func (n *Notifier) Notify(sender any, p Property) {
	if len(n.handlers) == 0 {
		return
	}
	// Handlers may unsubscribe while being called.
	subs := append([]*subscription(nil), n.handlers...)
	for _, s := range subs {
		s.fn(sender, p)
	}
}

// Subscribers returns the number of registered handlers.
func (n *Notifier) Subscribers() int {
	return len(n.handlers)
}

// SetProperty stores value in field and notifies p when the value changed.
// It reports whether a notification was sent.
func SetProperty[T comparable](n *Notifier, sender any, field *T, value T, p Property) bool {
	if *field == value {
		return false
	}
	*field = value
	n.Notify(sender, p)
	return true
}
