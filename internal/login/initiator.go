package login

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Initiator builds the provider consent URL that starts an OAuth login.
// The code/token exchange itself happens on the backend; the client only
// sends the user to the provider and later receives the redirect.
type Initiator struct {
	config *oauth2.Config
}

// NewInitiator wires the provider endpoint from configuration.
func NewInitiator(clientID, authURL, redirectURL string) (*Initiator, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, fmt.Errorf("login: client ID is required")
	}
	if strings.TrimSpace(authURL) == "" {
		return nil, fmt.Errorf("login: provider auth URL is required")
	}

	config := &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURL,
		Endpoint:    oauth2.Endpoint{AuthURL: authURL},
		Scopes:      []string{oidc.ScopeOpenID, "email", "profile"},
	}
	return &Initiator{config: config}, nil
}

// ConsentURL generates the provider consent URL carrying the given state.
func (i *Initiator) ConsentURL(state string) string {
	return i.config.AuthCodeURL(
		state,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}

// GenerateState generates a cryptographically secure random state string.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
