package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_VERIFY_DISCORD_CLIENT_ID", "1449415004276133959")
	t.Setenv("DISCORD_VERIFY_DISCORD_CLIENT_SECRET", "shh")
	t.Setenv("DISCORD_VERIFY_DISCORD_REDIRECT_URI", "https://verify.example.com/callback")
	t.Setenv("DISCORD_VERIFY_BOT_TOKEN", "bot-token")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"identify", "email", "guilds"}, cfg.Discord.Scopes)
	assert.Equal(t, "https://discord.com/api", cfg.Discord.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.Discord.RequestTimeout)
	assert.Equal(t, 60*time.Second, cfg.Bot.AvatarWait)
	assert.Equal(t, StoreDriverFile, cfg.Store.Driver)
	assert.Equal(t, "users.json", cfg.Store.Path)
	assert.True(t, cfg.Bot.Enabled)
	assert.False(t, cfg.MCP.Enabled)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DISCORD_VERIFY_DISCORD_SCOPES", "identify,email")
	t.Setenv("DISCORD_VERIFY_BOT_ALLOWED_USERS", "1272495260362080350,1391822624983875604")
	t.Setenv("DISCORD_VERIFY_DISCORD_REQUEST_TIMEOUT", "3s")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"identify", "email"}, cfg.Discord.Scopes)
	assert.False(t, cfg.Discord.HasScope("guilds"))
	assert.Equal(t, []string{"1272495260362080350", "1391822624983875604"}, cfg.Bot.AllowedUsers)
	assert.Equal(t, 3*time.Second, cfg.Discord.RequestTimeout)
}

func TestLoad_ScopeSeparators(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want []string
	}{
		{name: "space separated", env: "identify email guilds", want: []string{"identify", "email", "guilds"}},
		{name: "comma separated", env: "identify,guilds", want: []string{"identify", "guilds"}},
		{name: "mixed with padding", env: " identify, email  guilds ", want: []string{"identify", "email", "guilds"}},
		{name: "duplicates", env: "identify identify,guilds", want: []string{"identify", "guilds"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv("DISCORD_VERIFY_DISCORD_SCOPES", tt.env)

			cfg, err := Load(nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Discord.Scopes)
			assert.Equal(t, slices.Contains(tt.want, "guilds"), cfg.Discord.HasScope("guilds"))
		})
	}
}

func TestLoad_BlankScopes(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DISCORD_VERIFY_DISCORD_SCOPES", " , ")

	_, err := Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISCORD_VERIFY_DISCORD_SCOPES")
}

func TestLoad_FlagsAndConfigFile(t *testing.T) {
	setRequiredEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
store:
  driver: bolt
  path: /var/lib/discord-verify/users.db
mcp:
  enabled: true
`), 0o600))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	InitFlags(fs)
	require.NoError(t, fs.Parse([]string{"--config", path, "--port", "9090"}))

	cfg, err := Load(fs)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port, "flag should win over the config file")
	assert.Equal(t, StoreDriverBolt, cfg.Store.Driver)
	assert.Equal(t, "/var/lib/discord-verify/users.db", cfg.Store.Path)
	assert.True(t, cfg.MCP.Enabled)
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	setRequiredEnv(t)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	InitFlags(fs)
	require.NoError(t, fs.Parse([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")}))

	_, err := Load(fs)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Discord: DiscordConfig{
				ClientID:     "1",
				ClientSecret: "secret",
				RedirectURI:  "https://verify.example.com/callback",
				Scopes:       []string{"identify"},
				APIBaseURL:   "https://discord.com/api",
				AuthorizeURL: "https://discord.com/oauth2/authorize",
				CDNBaseURL:   "https://cdn.discordapp.com",
			},
			Bot:   BotConfig{Enabled: true, Token: "t"},
			Store: StoreConfig{Driver: StoreDriverFile, Path: "users.json"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing client id",
			mutate:  func(c *Config) { c.Discord.ClientID = "" },
			wantErr: "DISCORD_VERIFY_DISCORD_CLIENT_ID",
		},
		{
			name:    "redirect uri must be a url",
			mutate:  func(c *Config) { c.Discord.RedirectURI = "callback" },
			wantErr: "DISCORD_VERIFY_DISCORD_REDIRECT_URI",
		},
		{
			name:    "bot token required when bot enabled",
			mutate:  func(c *Config) { c.Bot.Token = "" },
			wantErr: "DISCORD_VERIFY_BOT_TOKEN",
		},
		{
			name: "bot token optional when bot disabled",
			mutate: func(c *Config) {
				c.Bot.Enabled = false
				c.Bot.Token = ""
			},
		},
		{
			name:    "unknown store driver",
			mutate:  func(c *Config) { c.Store.Driver = "postgres" },
			wantErr: "DISCORD_VERIFY_STORE_DRIVER",
		},
		{
			name: "redis needs a url",
			mutate: func(c *Config) {
				c.Store.Driver = StoreDriverRedis
				c.Store.Path = ""
			},
			wantErr: "DISCORD_VERIFY_STORE_REDIS_URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "DISCORD_VERIFY_DISCORD_CLIENT_ID", envName("Config.Discord.ClientID"))
	assert.Equal(t, "DISCORD_VERIFY_DISCORD_API_BASE_URL", envName("Config.Discord.APIBaseURL"))
	assert.Equal(t, "DISCORD_VERIFY_STORE_REDIS_URL", envName("Config.Store.RedisURL"))
}

func TestLoadStore(t *testing.T) {
	t.Run("discord credentials are not required", func(t *testing.T) {
		t.Setenv("DISCORD_VERIFY_STORE_PATH", "/tmp/users.json")

		cfg, err := LoadStore(nil)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/users.json", cfg.Store.Path)
		assert.Empty(t, cfg.Discord.ClientID)
	})

	t.Run("store settings are still validated", func(t *testing.T) {
		t.Setenv("DISCORD_VERIFY_STORE_DRIVER", "redis")

		_, err := LoadStore(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Config.Store.RedisURL")
		assert.Contains(t, err.Error(), "DISCORD_VERIFY_STORE_REDIS_URL")
	})
}
