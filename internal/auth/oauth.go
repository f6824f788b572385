package auth

import (
	"context"
	"errors"
	"time"

	"github.com/brizzai/discord-verify/internal/auth/constants"
	"github.com/brizzai/discord-verify/internal/auth/handlers"
	"github.com/brizzai/discord-verify/internal/auth/middleware"
	"github.com/brizzai/discord-verify/internal/auth/models"
	"github.com/brizzai/discord-verify/internal/auth/providers"
	"github.com/brizzai/discord-verify/internal/config"
	"github.com/brizzai/discord-verify/internal/store"
	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"
)

// Service represents the OAuth service
type Service struct {
	config       *config.DiscordConfig
	authProvider providers.Provider
	handler      *handlers.Handler
	now          func() time.Time
}

// NewService creates a new OAuth service
func NewService(cfg *config.Config, provider providers.Provider, st store.Store) *Service {
	s := &Service{
		config:       &cfg.Discord,
		authProvider: provider,
		now:          time.Now,
	}
	s.handler = handlers.NewHandler(s, st, &cfg.Discord)
	return s
}

// AuthURL returns the Discord consent URL the bot links to
func (s *Service) AuthURL(state string) string {
	return s.authProvider.AuthURL(state)
}

// Exchange trades an authorization code for a complete AuthorizationRecord.
// The calls run strictly in sequence, without retries, and any failure
// aborts with no partial record. The access token is dropped on return.
func (s *Service) Exchange(ctx context.Context, code string) (*models.AuthorizationRecord, error) {
	token, err := s.authProvider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, stageError(StageTokenExchange, err)
	}

	profile, err := s.authProvider.FetchProfile(ctx, token)
	if err != nil {
		return nil, stageError(StageProfileFetch, err)
	}

	guilds := []models.Guild{}
	if s.config.HasScope(constants.ScopeGuilds) {
		guilds, err = s.authProvider.FetchGuilds(ctx, token)
		if err != nil {
			return nil, stageError(StageGuildFetch, err)
		}
	}

	rec := models.NewAuthorizationRecord(*profile, guilds, s.now())
	return &rec, nil
}

// RegisterRoutes registers the callback server routes
func (s *Service) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", s.handler.HandleHealth)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SecurityHeaders)
		r.Get("/", s.handler.HandleIndex)
		r.Get("/callback", s.handler.HandleAuthCallback)
	})
}

func stageError(stage Stage, err error) error {
	exErr := &ExchangeError{Stage: stage, Err: err}

	var re *oauth2.RetrieveError
	var se *providers.StatusError
	switch {
	case errors.As(err, &re):
		if re.Response != nil {
			exErr.Status = re.Response.StatusCode
		}
		exErr.Body = string(re.Body)
	case errors.As(err, &se):
		exErr.Status = se.Status
		exErr.Body = se.Body
	}
	return exErr
}
