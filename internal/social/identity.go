// Package social verifies identities asserted by external login providers.
package social

import (
	"errors"
	"strings"

	"github.com/goodabcdef/instagram-project/internal/models"
)

var (
	// ErrProviderRejected means the provider refused the grant or code.
	ErrProviderRejected = errors.New("identity provider rejected the request")
	// ErrProviderUnavailable means the provider could not be reached or
	// answered with a server error.
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	// ErrIdentityRejected means a presented identity token failed verification.
	ErrIdentityRejected = errors.New("identity token rejected")
)

// Identity is a provider-verified user.
type Identity struct {
	Provider   models.Provider
	ProviderID string
	Email      string
	Nickname   string
	ImageURL   string
}

// localPart returns the part of an email before '@'.
func localPart(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
