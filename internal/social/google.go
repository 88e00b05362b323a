package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleProvider resolves Google sign-ins via the OpenID userinfo endpoint.
type GoogleProvider struct {
	oauth *oauth2.Config
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

func (p *GoogleProvider) Name() string {
	return ProviderGoogle
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

func (p *GoogleProvider) ResolveIdentity(ctx context.Context, code string) (ExternalIdentity, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return ExternalIdentity{}, ErrInvalidCode
	}

	resp, err := p.oauth.Client(ctx, token).Get(googleUserInfoURL)
	if err != nil {
		return ExternalIdentity{}, fmt.Errorf("google userinfo request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ExternalIdentity{}, fmt.Errorf("google userinfo returned status %d", resp.StatusCode)
	}

	var profile struct {
		Sub   string `json:"sub"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return ExternalIdentity{}, fmt.Errorf("decode google userinfo: %w", err)
	}
	if profile.Sub == "" {
		return ExternalIdentity{}, fmt.Errorf("google userinfo missing subject")
	}

	return ExternalIdentity{
		Provider:   ProviderGoogle,
		ProviderID: profile.Sub,
		Name:       profile.Name,
		Email:      profile.Email,
	}, nil
}
