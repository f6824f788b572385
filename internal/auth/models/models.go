package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Profile is the snapshot of a Discord user as returned by GET /users/@me
type Profile struct {
	ID            string `json:"id" yaml:"id"`
	Username      string `json:"username" yaml:"username"`
	GlobalName    string `json:"global_name,omitempty" yaml:"global_name,omitempty"`
	Discriminator string `json:"discriminator,omitempty" yaml:"discriminator,omitempty"`
	// Email is empty when the email scope was not granted
	Email    string `json:"email,omitempty" yaml:"email,omitempty"`
	Verified bool   `json:"verified,omitempty" yaml:"verified,omitempty"`
	// Avatar is a CDN hash, or an absolute URL set through the avatar override
	Avatar string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Locale string `json:"locale,omitempty" yaml:"locale,omitempty"`

	Extra Extra `json:"-" yaml:"-"`
}

// Guild is one entry of GET /users/@me/guilds
type Guild struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Icon        string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Owner       bool   `json:"owner,omitempty" yaml:"owner,omitempty"`
	Permissions string `json:"permissions,omitempty" yaml:"permissions,omitempty"`

	Extra Extra `json:"-" yaml:"-"`
}

// AuthorizationRecord is what a successful code exchange leaves behind for one user.
// The user id is the store key and is not repeated inside the serialized value.
type AuthorizationRecord struct {
	UserID       string    `json:"-" yaml:"user_id"`
	Profile      Profile   `json:"user" yaml:"user"`
	Guilds       []Guild   `json:"guilds" yaml:"guilds"`
	AuthorizedAt time.Time `json:"authorizedAt" yaml:"authorized_at"`
}

// NewAuthorizationRecord assembles a record keyed by the profile id
func NewAuthorizationRecord(profile Profile, guilds []Guild, now time.Time) AuthorizationRecord {
	if guilds == nil {
		guilds = []Guild{}
	}
	return AuthorizationRecord{
		UserID:       profile.ID,
		Profile:      profile,
		Guilds:       guilds,
		AuthorizedAt: now.UTC(),
	}
}

// GuildNames returns the guild names in the order Discord listed them
func (r AuthorizationRecord) GuildNames() []string {
	names := make([]string, len(r.Guilds))
	for i, g := range r.Guilds {
		names[i] = g.Name
	}
	return names
}

// DisplayName prefers the global display name over the unique username
func (p Profile) DisplayName() string {
	if p.GlobalName != "" {
		return p.GlobalName
	}
	return p.Username
}

// HasEmail reports whether the email scope yielded an address
func (p Profile) HasEmail() bool {
	return p.Email != ""
}

// IsAvatarOverride reports whether Avatar holds a URL rather than a CDN hash
func (p Profile) IsAvatarOverride() bool {
	return strings.HasPrefix(p.Avatar, "https://") || strings.HasPrefix(p.Avatar, "http://")
}

// AvatarURL resolves the avatar to a displayable URL on cdnBase
func (p Profile) AvatarURL(cdnBase string) string {
	cdnBase = strings.TrimSuffix(cdnBase, "/")
	switch {
	case p.IsAvatarOverride():
		return p.Avatar
	case p.Avatar == "":
		return fmt.Sprintf("%s/embed/avatars/%d.png", cdnBase, p.defaultAvatarIndex())
	case strings.HasPrefix(p.Avatar, "a_"):
		return fmt.Sprintf("%s/avatars/%s/%s.gif", cdnBase, p.ID, p.Avatar)
	default:
		return fmt.Sprintf("%s/avatars/%s/%s.png", cdnBase, p.ID, p.Avatar)
	}
}

// defaultAvatarIndex follows Discord's rule: legacy discriminators use
// discriminator % 5, migrated usernames use (id >> 22) % 6.
func (p Profile) defaultAvatarIndex() uint64 {
	if p.Discriminator != "" && p.Discriminator != "0" {
		d, err := strconv.ParseUint(p.Discriminator, 10, 64)
		if err == nil {
			return d % 5
		}
	}
	id, err := strconv.ParseUint(p.ID, 10, 64)
	if err != nil {
		return 0
	}
	return (id >> 22) % 6
}
