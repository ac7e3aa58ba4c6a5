package core

// Registry tracks the sessions that receive broadcasts.
// Only the hub loop touches it, so it carries no lock.
type Registry struct {
	sessions map[string]Session
	order    []string
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Session)}
}

// Add registers s. Returns false if the id is already present.
func (r *Registry) Add(s Session) bool {
	id := s.SessionID()
	if _, exists := r.sessions[id]; exists {
		return false
	}
	r.sessions[id] = s
	r.order = append(r.order, id)
	return true
}

// Remove drops the session with the given id and returns it.
// Unknown ids are ignored.
func (r *Registry) Remove(id string) (Session, bool) {
	s, exists := r.sessions[id]
	if !exists {
		return nil, false
	}
	delete(r.sessions, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return s, true
}

// Targets returns live sessions in registration order.
func (r *Registry) Targets() []Session {
	out := make([]Session, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sessions[id])
	}
	return out
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	return len(r.sessions)
}
