// Package dida talks to the Dida365 Open API: OAuth token lifecycle,
// project listing and task creation.
package dida

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/Benjamin-4O4/Hi-Ben/pkg/config"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/logger"
)

const (
	authURL  = "https://dida365.com/oauth/authorize"
	tokenURL = "https://dida365.com/oauth/token"
)

var scopes = []string{"tasks:write", "tasks:read"}

// OAuthConfig builds the oauth2 flow for the Dida365 Open API.
func OAuthConfig(cfg config.DidaConfig, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURL,
			TokenURL: tokenURL,
		},
	}
}

// Connect exchanges an authorization code and stores the token for the
// user. The code comes from the user pasting the redirect URL's query.
func (c *Client) Connect(ctx context.Context, userID, code string) error {
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	if err := c.users.SetDidaToken(userID, fromOAuthToken(tok)); err != nil {
		return fmt.Errorf("store token: %w", err)
	}

	logger.InfoCF("dida", "User connected", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}

// AuthURL returns the authorization page the user must visit. state is
// echoed back on the redirect and should bind the flow to the user.
func (c *Client) AuthURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func fromOAuthToken(tok *oauth2.Token) *config.DidaToken {
	return &config.DidaToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
}

func toOAuthToken(tok *config.DidaToken) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
}

// persistingSource saves refreshed tokens back to the user store, so a
// refresh survives restarts.
type persistingSource struct {
	users  *config.UserStore
	userID string
	last   string
	src    oauth2.TokenSource
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		if err := p.users.SetDidaToken(p.userID, fromOAuthToken(tok)); err != nil {
			logger.WarnCF("dida", "Failed to persist refreshed token", map[string]interface{}{
				"user_id": p.userID,
				"error":   err.Error(),
			})
		} else {
			logger.InfoCF("dida", "Token refreshed", map[string]interface{}{
				"user_id": p.userID,
			})
		}
	}
	return tok, nil
}
