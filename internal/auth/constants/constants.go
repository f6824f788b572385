package constants

const (
	// TokenType for Bearer authentication
	TokenType = "Bearer"

	// AuthHeaderName is the name of the Authorization header
	AuthHeaderName = "Authorization"

	// AuthHeaderPrefix is the prefix for the Authorization header value
	AuthHeaderPrefix = "Bearer "
)

// Discord REST paths, relative to the API base URL
const (
	TokenPath  = "/oauth2/token"
	UserPath   = "/users/@me"
	GuildsPath = "/users/@me/guilds"
)

// Discord OAuth scopes
const (
	ScopeIdentify = "identify"
	ScopeEmail    = "email"
	ScopeGuilds   = "guilds"
)

var DefaultScopes = []string{ScopeIdentify, ScopeEmail, ScopeGuilds}

// Query parameters Discord sends back to the redirect URI
const (
	CodeQueryParam             = "code"
	ErrorQueryParam            = "error"
	ErrorDescriptionQueryParam = "error_description"
)
