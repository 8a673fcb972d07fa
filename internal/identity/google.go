package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// ErrGoogleNotConfigured is returned when Google login is attempted without
// client credentials configured.
var ErrGoogleNotConfigured = errors.New("google login is not configured")

// GoogleProvider wraps the Google authorization code flow.
type GoogleProvider struct {
	config *oauth2.Config
}

// NewGoogleProvider builds a provider from OAuth client credentials.
// redirectURL must match the callback registered in the Google console.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

// Enabled reports whether client credentials are present.
func (p *GoogleProvider) Enabled() bool {
	return p.config.ClientID != "" && p.config.ClientSecret != ""
}

// AuthURL returns the consent page URL carrying the anti-CSRF state.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for the user's Google profile.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (Profile, *oauth2.Token, error) {
	if !p.Enabled() {
		return Profile{}, nil, ErrGoogleNotConfigured
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return Profile{}, nil, fmt.Errorf("error exchanging OAuth code: %w", err)
	}

	client := p.config.Client(ctx, token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return Profile{}, nil, fmt.Errorf("error fetching Google user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Profile{}, nil, fmt.Errorf("google user info returned status %d", resp.StatusCode)
	}

	var info struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Profile{}, nil, fmt.Errorf("error decoding Google user info: %w", err)
	}
	if info.ID == "" {
		return Profile{}, nil, errors.New("google returned an empty subject id")
	}

	return Profile{
		Subject: info.ID,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, token, nil
}
