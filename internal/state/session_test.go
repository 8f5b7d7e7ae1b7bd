package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAuthenticateStampsExpiry(t *testing.T) {
	s, clock := newClockedStore()

	s.SetAuthenticated(true, time.Hour)

	snap := s.State()
	assert.True(t, snap.Authenticated)
	assert.Equal(t, clock.Now().Add(time.Hour), snap.SessionExpiry)
}

func TestSessionActiveHonorsExpiry(t *testing.T) {
	s, clock := newClockedStore()

	s.SetAuthenticated(true, time.Hour)
	assert.True(t, s.SessionActive(clock.Now()))

	// Nothing expires the session in the background; the explicit check does
	assert.False(t, s.SessionActive(clock.Now().Add(2*time.Hour)))
	assert.True(t, s.State().Authenticated, "flag itself stays set past expiry")
}

func TestLogoutClearsExpiry(t *testing.T) {
	s, clock := newClockedStore()

	s.SetAuthenticated(true, time.Hour)
	s.SetAuthenticated(false, time.Hour)

	snap := s.State()
	assert.False(t, snap.Authenticated)
	assert.True(t, snap.SessionExpiry.IsZero())
	assert.False(t, s.SessionActive(clock.Now()))
}
