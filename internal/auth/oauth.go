package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// Identity is the verified triple the rest of the app consumes from any
// identity provider: a stable opaque id, a primary email, and a display
// name. The user-sync service upserts a local user record from it on every
// session establishment.
type Identity struct {
	ID    string
	Email string
	Name  string
}

// githubUser is the portion of the GitHub /user API response we care about.
type githubUser struct {
	ID    int64  `json:"id"`    // GitHub's numeric user ID; stable, never changes
	Login string `json:"login"` // GitHub username
	Name  string `json:"name"`  // full name, may be empty
	Email string `json:"email"` // primary public email, empty if hidden
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization Code
// flow. GitHub plays the external-identity-provider role: it verifies who
// the user is, and we only ever consume the resulting Identity triple.
//
// The code-for-token exchange is server-to-server using the ClientSecret;
// the access token never reaches the browser.
type GitHubProvider struct {
	config *oauth2.Config
}

// NewGitHubProvider creates a GitHubProvider. Register an OAuth App on
// GitHub to obtain the client credentials; callbackURL must exactly match
// the app's configured authorization callback URL.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
	}
}

// AuthURL returns the GitHub authorization URL for the given CSRF state.
// The caller stores the state in a short-lived cookie and verifies it on
// callback.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the OAuth flow: it trades the authorization code for an
// access token, fetches the GitHub profile, and maps it to an Identity.
//
// The Identity.ID is namespaced ("github:<numeric id>") so provider ids can
// never collide with locally generated account ids. An account with no
// usable email is rejected: email is how givers and invitees are matched up,
// so the app cannot function without one.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// Client returns an *http.Client that attaches the bearer token to
	// every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var gh githubUser
	if err := json.NewDecoder(resp.Body).Decode(&gh); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}

	if gh.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}
	if gh.Email == "" {
		return nil, fmt.Errorf("auth: no public email on your GitHub profile; make one public or register with email and password")
	}

	name := gh.Name
	if name == "" {
		name = gh.Login
	}

	return &Identity{
		ID:    fmt.Sprintf("github:%d", gh.ID),
		Email: gh.Email,
		Name:  name,
	}, nil
}
