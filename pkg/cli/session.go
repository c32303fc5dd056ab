package cli

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"

	"github.com/coderunners/reprod/pkg/scorecard"
)

const sessionCookieName = "reprod_session"

// Session holds the per-browser UI state: the selected paper and the
// detail view toggles. Server-side only, keyed by an opaque cookie.
type Session struct {
	mu sync.Mutex

	selectedID string
	viewFlags  map[string]bool
}

// Select records the paper selection. An empty id clears it.
func (s *Session) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedID = id
}

// SetView records a named detail-view toggle (e.g. "notes").
func (s *Session) SetView(key string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.viewFlags == nil {
		s.viewFlags = make(map[string]bool)
	}
	s.viewFlags[key] = on
}

// Views returns a copy of the view toggles.
func (s *Session) Views() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.viewFlags))
	for k, v := range s.viewFlags {
		out[k] = v
	}
	return out
}

// Resolve reconciles the stored selection against the currently visible
// papers. A selection that is no longer visible is stale: it snaps to
// the first visible paper. With nothing visible the selection is kept
// for when the filters relax again.
func (s *Session) Resolve(visible []*scorecard.Paper) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(visible) == 0 {
		return ""
	}

	if s.selectedID != "" {
		for _, p := range visible {
			if p.ID == s.selectedID {
				return s.selectedID
			}
		}
	}

	s.selectedID = visible[0].ID
	return s.selectedID
}

// SessionStore is the in-process session registry.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for the request, creating one (and setting
// the cookie) when absent.
func (st *SessionStore) Get(w http.ResponseWriter, r *http.Request) *Session {
	var key string
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		key = c.Value
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if key != "" {
		if s, ok := st.sessions[key]; ok {
			return s
		}
	}

	if key == "" {
		key = newSessionKey()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    key,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	s := &Session{}
	st.sessions[key] = s
	return s
}

func newSessionKey() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand read does not fail on supported platforms
		panic(err)
	}
	return hex.EncodeToString(b)
}
