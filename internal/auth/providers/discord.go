package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/brizzai/discord-verify/internal/auth/constants"
	"github.com/brizzai/discord-verify/internal/auth/models"
	"github.com/brizzai/discord-verify/internal/config"
	"github.com/brizzai/discord-verify/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const maxErrorBody = 4 << 10

type DiscordProvider struct {
	oauth2Config *oauth2.Config
	apiBaseURL   string
	timeout      time.Duration
	httpClient   *http.Client
}

func NewDiscordProvider(cfg *config.DiscordConfig) *DiscordProvider {
	apiBase := strings.TrimSuffix(cfg.APIBaseURL, "/")
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &DiscordProvider{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthorizeURL,
				TokenURL:  apiBase + constants.TokenPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBaseURL: apiBase,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *DiscordProvider) AuthURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state)
}

func (p *DiscordProvider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx, cancel := p.callContext(ctx)
	defer cancel()

	// Discord expects the scope again on the token request
	scope := oauth2.SetAuthURLParam("scope", strings.Join(p.oauth2Config.Scopes, " "))
	return p.oauth2Config.Exchange(ctx, code, scope)
}

func (p *DiscordProvider) FetchProfile(ctx context.Context, token *oauth2.Token) (*models.Profile, error) {
	var profile models.Profile
	if err := p.getJSON(ctx, token, constants.UserPath, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (p *DiscordProvider) FetchGuilds(ctx context.Context, token *oauth2.Token) ([]models.Guild, error) {
	guilds := []models.Guild{}
	if err := p.getJSON(ctx, token, constants.GuildsPath, &guilds); err != nil {
		return nil, err
	}
	return guilds, nil
}

func (p *DiscordProvider) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	return context.WithTimeout(ctx, p.timeout)
}

func (p *DiscordProvider) getJSON(ctx context.Context, token *oauth2.Token, path string, out any) error {
	ctx, cancel := p.callContext(ctx)
	defer cancel()

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token.AccessToken,
		TokenType:   constants.TokenType,
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s failed: %w", path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("Failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Status: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
