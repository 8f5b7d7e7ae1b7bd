package state

import "time"

// SetAuthenticated flips the auth flag. Authenticating stamps a session
// expiry ttl in the future; logging out clears it.
func (s *Store) SetAuthenticated(ok bool, ttl time.Duration) {
	var expiry time.Time
	if ok {
		expiry = s.now().Add(ttl)
	}
	s.Update(Patch{Authenticated: &ok, SessionExpiry: &expiry})
}

// SessionActive is the explicit expiry check: authenticated and not past the
// stamped expiry. Nothing expires the session in the background; callers
// that care consult this.
func (s *Store) SessionActive(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Authenticated && now.Before(s.state.SessionExpiry)
}
