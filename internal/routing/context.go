package routing

// RouteContext is handed to activation middleware when a page becomes current.
type RouteContext struct {
	Page PageInfo
	// Services carries whatever the activating surface wants middleware to
	// reach, typically the owning model.
	Services any

	// Set by the final handler.
	Title string
}
