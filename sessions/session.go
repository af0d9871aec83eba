package sessions

import (
	"slices"
	"time"

	"github.com/jrsteele09/go-pod-app/internal/utils"
)

// Info is the session state reported by the backend's session-information endpoint.
// A value is never edited in place: every refresh replaces it as a whole.
type Info struct {
	IsLoggedIn                bool       `json:"isLoggedIn"`                          // Whether the backend holds an authenticated session
	ExpirationDate            *time.Time `json:"expirationDate,omitempty"`            // When the login session expires
	AccessGrantID             *string    `json:"accessGrantId,omitempty"`             // Grant installed with pod-access-grant
	AccessGrantExpirationDate *time.Time `json:"accessGrantExpirationDate,omitempty"` // When that grant expires
	WebID                     *string    `json:"webId,omitempty"`                     // Identity of the logged in user
	StorageSpaces             []string   `json:"pods,omitempty"`                      // Pod roots; the first is used for resource URLs
	Tokens                    *Tokens    `json:"tokens,omitempty"`
}

// Tokens are the identity provider tokens the backend chose to expose.
type Tokens struct {
	AccessToken string `json:"accessToken,omitempty"`
	IDToken     string `json:"idToken,omitempty"`
}

// Clone returns a deep copy so callers can never alter the stored value.
func (i *Info) Clone() *Info {
	if i == nil {
		return nil
	}
	c := *i
	c.ExpirationDate = utils.Clone(i.ExpirationDate)
	c.AccessGrantID = utils.Clone(i.AccessGrantID)
	c.AccessGrantExpirationDate = utils.Clone(i.AccessGrantExpirationDate)
	c.WebID = utils.Clone(i.WebID)
	c.StorageSpaces = slices.Clone(i.StorageSpaces)
	c.Tokens = utils.Clone(i.Tokens)
	return &c
}

// RootStorage returns the first storage space, if any.
func (i *Info) RootStorage() (string, bool) {
	if i == nil || len(i.StorageSpaces) == 0 {
		return "", false
	}
	return i.StorageSpaces[0], true
}

// HasAccessGrant reports whether a grant is installed and not expired at now.
func (i *Info) HasAccessGrant(now time.Time) bool {
	if i == nil || i.AccessGrantID == nil || *i.AccessGrantID == "" {
		return false
	}
	return i.AccessGrantExpirationDate == nil || i.AccessGrantExpirationDate.After(now)
}

// Expired reports whether the login session has passed its expiration date.
func (i *Info) Expired(now time.Time) bool {
	return i != nil && i.ExpirationDate != nil && !i.ExpirationDate.After(now)
}

// Navigation is a terminal instruction to leave the current page for Location.
// Nothing further happens in the current page lifecycle once it is followed.
type Navigation struct {
	Location string
}
