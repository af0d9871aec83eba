package view

import (
	"time"

	"github.com/jrsteele09/go-pod-app/internal/utils"
	"github.com/jrsteele09/go-pod-app/sessions"
	"github.com/jrsteele09/go-pod-app/vc"
)

// Snapshot is what the main page renders.
type Snapshot struct {
	State         string
	LoggedIn      bool
	WebID         string
	StorageSpaces []string
	AccessGrantID string
	GrantActive   bool
	SessionExpiry *time.Time
	WrittenTurtle string
	ReadTurtle    string
	AccessGrants  []vc.AccessGrant
	Error         string
}

func (m *Main) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		State:         m.state.String(),
		WrittenTurtle: m.writtenTurtle,
		ReadTurtle:    m.readTurtle,
		AccessGrants:  append([]vc.AccessGrant(nil), m.accessGrants...),
	}
	if m.lastErr != nil {
		snap.Error = m.lastErr.Error()
	}
	if info := m.session; info != nil {
		snap.LoggedIn = info.IsLoggedIn
		snap.WebID = utils.ValueOr(info.WebID, "unknown")
		snap.StorageSpaces = append([]string(nil), info.StorageSpaces...)
		snap.AccessGrantID = utils.Value(info.AccessGrantID)
		snap.GrantActive = info.HasAccessGrant(time.Now())
		snap.SessionExpiry = info.ExpirationDate
	}
	return snap
}

// Session returns the latest session value the page has seen, or the store's
// current value when the page was never loaded.
func (m *Main) Session() *sessions.Info {
	m.mu.Lock()
	info := m.session.Clone()
	m.mu.Unlock()
	if info == nil {
		return m.store.Current()
	}
	return info
}
