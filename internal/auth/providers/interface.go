package providers

import (
	"context"
	"fmt"

	"github.com/brizzai/discord-verify/internal/auth/models"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/oauth2"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Provider defines the calls the exchange flow makes against the identity provider
type Provider interface {
	// AuthURL returns the consent URL the user is sent to
	AuthURL(state string) string

	// ExchangeCode exchanges an authorization code for an access token
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)

	// FetchProfile returns the profile of the token owner
	FetchProfile(ctx context.Context, token *oauth2.Token) (*models.Profile, error)

	// FetchGuilds returns the guilds the token owner belongs to
	FetchGuilds(ctx context.Context, token *oauth2.Token) ([]models.Guild, error)
}

// StatusError is returned when a REST call answers with a non-2xx status
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Status)
}
