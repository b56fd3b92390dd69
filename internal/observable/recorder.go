package observable

// Recorder collects notifications in the order they arrive.
type Recorder struct {
	props []Property
}

// Handler returns a Handler that appends to r.
func (r *Recorder) Handler() Handler {
	return func(_ any, p Property) {
		r.props = append(r.props, p)
	}
}

// Properties returns a copy of the recorded property names.
func (r *Recorder) Properties() []Property {
	out := make([]Property, len(r.props))
	copy(out, r.props)
	return out
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.props = nil
}
