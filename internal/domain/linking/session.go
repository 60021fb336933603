package linking

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Default TTL for a pending link session. Reset when the callback succeeds
// so the user has the full window again to pick accounts.
const DefaultSessionTTL = 10 * time.Minute

// SessionPhase tracks how far the pending flow has progressed.
type SessionPhase string

const (
	// PhaseAwaitingCallback means the auth URL was issued and the provider
	// redirect has not come back yet
	PhaseAwaitingCallback SessionPhase = "awaiting_callback"
	// PhaseReadyForSelection means the code was exchanged and the short-lived
	// token is stored, waiting for the user's account selection
	PhaseReadyForSelection SessionPhase = "ready_for_selection"
)

// PendingLinkSession is the ephemeral state held between the start and
// completion of an OAuth flow. It lives only in the TTL-bounded session
// store, keyed by the anti-forgery state token, and never outlives a single
// linking attempt.
type PendingLinkSession struct {
	State     string       `json:"state"`
	TenantID  uuid.UUID    `json:"tenant_id"`
	Platform  PlatformCode `json:"platform"`
	Phase     SessionPhase `json:"phase"`
	CreatedAt time.Time    `json:"created_at"`

	// Set by the callback step.
	AccessToken string `json:"access_token,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}

// NewPendingLinkSession creates a session with a freshly generated
// anti-forgery state token.
func NewPendingLinkSession(tenantID uuid.UUID, platform PlatformCode) (*PendingLinkSession, error) {
	state, err := GenerateState()
	if err != nil {
		return nil, err
	}
	return &PendingLinkSession{
		State:     state,
		TenantID:  tenantID,
		Platform:  platform,
		Phase:     PhaseAwaitingCallback,
		CreatedAt: time.Now(),
	}, nil
}

// GenerateState returns a cryptographically random opaque token, hex-encoded
// from 16 bytes of entropy.
func GenerateState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// MatchesState compares the incoming state against the session's state in
// constant time. Both values must be non-empty.
func (s *PendingLinkSession) MatchesState(incoming string) bool {
	if s.State == "" || incoming == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.State), []byte(incoming)) == 1
}

// MarkReady stores the short-lived access token obtained from the code
// exchange and advances the session to the selection phase.
func (s *PendingLinkSession) MarkReady(accessToken string, expiresIn int64) {
	s.Phase = PhaseReadyForSelection
	s.AccessToken = accessToken
	s.ExpiresIn = expiresIn
}

// ReadyForSelection returns true once the short-lived token is present.
func (s *PendingLinkSession) ReadyForSelection() bool {
	return s.Phase == PhaseReadyForSelection && s.AccessToken != ""
}
