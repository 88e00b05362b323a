package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

const facebookProfileURL = "https://graph.facebook.com/me?fields=id,name,email"

// FacebookProvider resolves Facebook sign-ins via the Graph API.
// Facebook withholds the email for accounts registered with a phone number;
// those identities resolve with an empty email.
type FacebookProvider struct {
	oauth *oauth2.Config
}

func NewFacebookProvider(clientID, clientSecret, redirectURL string) *FacebookProvider {
	return &FacebookProvider{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"email", "public_profile"},
			Endpoint:     facebook.Endpoint,
		},
	}
}

func (p *FacebookProvider) Name() string {
	return ProviderFacebook
}

func (p *FacebookProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

func (p *FacebookProvider) ResolveIdentity(ctx context.Context, code string) (ExternalIdentity, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return ExternalIdentity{}, ErrInvalidCode
	}

	resp, err := p.oauth.Client(ctx, token).Get(facebookProfileURL)
	if err != nil {
		return ExternalIdentity{}, fmt.Errorf("facebook profile request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ExternalIdentity{}, fmt.Errorf("facebook profile returned status %d", resp.StatusCode)
	}

	var profile struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return ExternalIdentity{}, fmt.Errorf("decode facebook profile: %w", err)
	}
	if profile.ID == "" {
		return ExternalIdentity{}, fmt.Errorf("facebook profile missing id")
	}

	return ExternalIdentity{
		Provider:   ProviderFacebook,
		ProviderID: profile.ID,
		Name:       profile.Name,
		Email:      profile.Email,
	}, nil
}
