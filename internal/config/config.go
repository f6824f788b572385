package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/brizzai/discord-verify/internal/auth/constants"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Version returns the bare release version
func Version() string {
	return version
}

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("discord-verify version %s, commit %s, built at %s", version, commit, date)
}

// EnvPrefix is the prefix for every environment variable read by Load
const EnvPrefix = "DISCORD_VERIFY"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Discord DiscordConfig `mapstructure:"discord"`
	Bot     BotConfig     `mapstructure:"bot"`
	Store   StoreConfig   `mapstructure:"store"`
	MCP     MCPConfig     `mapstructure:"mcp"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"gte=0,lte=65535"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address of the callback server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format" validate:"omitempty,oneof=json console"`
	Color             bool   `mapstructure:"color"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

// DiscordConfig holds the OAuth2 application credentials and the Discord endpoints.
type DiscordConfig struct {
	ClientID       string        `mapstructure:"client_id" validate:"required"`
	ClientSecret   string        `mapstructure:"client_secret" validate:"required"`
	RedirectURI    string        `mapstructure:"redirect_uri" validate:"required,url"`
	Scopes         []string      `mapstructure:"scopes" validate:"min=1"`
	APIBaseURL     string        `mapstructure:"api_base_url" validate:"required,url"`
	AuthorizeURL   string        `mapstructure:"authorize_url" validate:"required,url"`
	CDNBaseURL     string        `mapstructure:"cdn_base_url" validate:"required,url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// HasScope reports whether scope was requested during authorization
func (d DiscordConfig) HasScope(scope string) bool {
	return slices.Contains(d.Scopes, scope)
}

type BotConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Token        string        `mapstructure:"token" validate:"required_if=Enabled true"`
	GuildID      string        `mapstructure:"guild_id"`
	AllowedUsers []string      `mapstructure:"allowed_users"`
	AvatarWait   time.Duration `mapstructure:"avatar_wait"`
}

// StoreDriver selects the credential store backend
type StoreDriver string

const (
	StoreDriverFile  StoreDriver = "file"
	StoreDriverBolt  StoreDriver = "bolt"
	StoreDriverRedis StoreDriver = "redis"
)

type StoreConfig struct {
	Driver      StoreDriver `mapstructure:"driver" validate:"oneof=file bolt redis"`
	Path        string      `mapstructure:"path" validate:"required_unless=Driver redis"`
	RedisURL    string      `mapstructure:"redis_url" validate:"required_if=Driver redis"`
	RedisPrefix string      `mapstructure:"redis_prefix"`
}

type MCPConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Token, when set, is required as a bearer token on /mcp
	Token string `mapstructure:"token"`
}

// InitFlags registers the command line flags understood by Load on fs
func InitFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a config file (defaults to ./config.yaml)")
	fs.Int("port", 3000, "Port of the OAuth callback server")
	fs.String("store-driver", string(StoreDriverFile), "Credential store backend (file|bolt|redis)")
	fs.String("store-path", "users.json", "Path of the credential store file")
	fs.String("log-level", "info", "Log level (debug|info|warn|error)")
}

var flagKeys = map[string]string{
	"port":         "server.port",
	"store-driver": "store.driver",
	"store-path":   "store.path",
	"log-level":    "logging.level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
	v.SetDefault("logging.disable_stacktrace", false)
	v.SetDefault("logging.output_path", "")
	v.SetDefault("logging.append_to_file", false)
	v.SetDefault("logging.disable_console", false)

	// Keys without a default are invisible to AutomaticEnv during Unmarshal
	v.SetDefault("discord.client_id", "")
	v.SetDefault("discord.client_secret", "")
	v.SetDefault("discord.redirect_uri", "")
	v.SetDefault("discord.scopes", slices.Clone(constants.DefaultScopes))
	v.SetDefault("discord.api_base_url", "https://discord.com/api")
	v.SetDefault("discord.authorize_url", "https://discord.com/oauth2/authorize")
	v.SetDefault("discord.cdn_base_url", "https://cdn.discordapp.com")
	v.SetDefault("discord.request_timeout", 10*time.Second)

	v.SetDefault("bot.enabled", true)
	v.SetDefault("bot.token", "")
	v.SetDefault("bot.guild_id", "")
	v.SetDefault("bot.allowed_users", []string{})
	v.SetDefault("bot.avatar_wait", 60*time.Second)

	v.SetDefault("store.driver", string(StoreDriverFile))
	v.SetDefault("store.path", "users.json")
	v.SetDefault("store.redis_url", "")
	v.SetDefault("store.redis_prefix", "discord-verify")

	v.SetDefault("mcp.enabled", false)
	v.SetDefault("mcp.token", "")
}

// Load reads the configuration from defaults, ./config.yaml, the environment and
// the flags in fs (which may be nil), in increasing order of precedence.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg, err := read(fs)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStore is Load for commands that only touch the credential store: only
// the store and logging sections are validated.
func LoadStore(fs *pflag.FlagSet) (*Config, error) {
	cfg, err := read(fs)
	if err != nil {
		return nil, err
	}
	if err := report(validate.Struct(cfg.Store), "Config.Store"); err != nil {
		return nil, err
	}
	if err := report(validate.Struct(cfg.Logging), "Config.Logging"); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	configFile := ""
	if fs != nil {
		for flagName, key := range flagKeys {
			if f := fs.Lookup(flagName); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
		configFile, _ = fs.GetString("config")
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/discord-verify")
	}

	if err := v.ReadInConfig(); err != nil {
		// Environment-only deployments have no config file at all
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Discord.Scopes = splitScopes(cfg.Discord.Scopes)
	return &cfg, nil
}

// splitScopes accepts Discord's space separated scope string as well as
// comma separated or list forms, dropping duplicates.
func splitScopes(raw []string) []string {
	scopes := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, scope := range strings.FieldsFunc(entry, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		}) {
			if !slices.Contains(scopes, scope) {
				scopes = append(scopes, scope)
			}
		}
	}
	return scopes
}

var validate = validator.New()

// Validate checks the required settings and returns a readable error naming
// the first offending environment variable.
func (c *Config) Validate() error {
	return report(validate.Struct(c), "")
}

// report turns validator output into one readable error. prefix is prepended
// to the namespaces of a validated sub-struct.
func report(err error, prefix string) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		if prefix != "" {
			// StoreConfig.Path -> Config.Store.Path
			if _, field, ok := strings.Cut(ns, "."); ok {
				ns = prefix + "." + field
			}
		}
		msgs = append(msgs, fmt.Sprintf("%s is invalid (%s), set it in config.yaml or %s", ns, fe.Tag(), envName(ns)))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// envName maps a validator namespace such as Config.Discord.ClientID to the
// environment variable holding it.
func envName(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 0 && parts[0] == "Config" {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = strings.ToUpper(snake(p))
	}
	return EnvPrefix + "_" + strings.Join(parts, "_")
}

func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prev := rune(s[i-1])
			nextLower := i+1 < len(s) && s[i+1] >= 'a' && s[i+1] <= 'z'
			if (prev >= 'a' && prev <= 'z') || nextLower {
				b.WriteByte('_')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
