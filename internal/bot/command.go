package bot

import (
	"context"
	"fmt"
	"sort"

	"github.com/bwmarrin/discordgo"
)

// Session is the part of *discordgo.Session the command handlers use
type Session interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
}

type Command struct {
	Name        string
	Description string
	Options     []*discordgo.ApplicationCommandOption
	// Interactive commands wait for user input and are not bound by the
	// per command timeout
	Interactive bool
	Handler     func(*Context) error
}

// Context is handed to a command handler for one interaction
type Context struct {
	context.Context
	Session     Session
	Interaction *discordgo.Interaction
	Command     Command

	responded bool
}

// User returns the invoking user, in a guild or in a DM
func (c *Context) User() *discordgo.User {
	if c.Interaction.Member != nil && c.Interaction.Member.User != nil {
		return c.Interaction.Member.User
	}
	return c.Interaction.User
}

// Option returns the named top level option, or nil
func (c *Context) Option(name string) *discordgo.ApplicationCommandInteractionDataOption {
	for _, o := range c.Interaction.ApplicationCommandData().Options {
		if o.Name == name {
			return o
		}
	}
	return nil
}

func (c *Context) Reply(text string, ephemeral bool) error {
	return c.respond(&discordgo.InteractionResponseData{Content: text}, ephemeral)
}

func (c *Context) ReplyEmbed(embed *discordgo.MessageEmbed, components []discordgo.MessageComponent, ephemeral bool) error {
	return c.respond(&discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	}, ephemeral)
}

// Followup posts a message after the initial response was sent
func (c *Context) Followup(text string, embeds ...*discordgo.MessageEmbed) error {
	_, err := c.Session.FollowupMessageCreate(c.Interaction, true, &discordgo.WebhookParams{
		Content: text,
		Embeds:  embeds,
	})
	return err
}

// Fail tells the user something went wrong, as the initial response or
// as a followup
func (c *Context) Fail(text string) error {
	if c.responded {
		return c.Followup(text)
	}
	return c.Reply(text, true)
}

func (c *Context) respond(data *discordgo.InteractionResponseData, ephemeral bool) error {
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := c.Session.InteractionRespond(c.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err == nil {
		c.responded = true
	}
	return err
}

// Registry holds the slash commands the bot answers
type Registry struct {
	commands map[string]Command
}

func NewRegistry() *Registry {
	return &Registry{commands: map[string]Command{}}
}

func (r *Registry) Add(cmd Command) {
	if cmd.Name == "" {
		panic("Command name cannot be empty")
	}
	if cmd.Description == "" {
		panic(fmt.Sprintf("Command %s description cannot be empty", cmd.Name))
	}
	if cmd.Handler == nil {
		panic(fmt.Sprintf("Command %s handler cannot be nil", cmd.Name))
	}
	r.commands[cmd.Name] = cmd
}

func (r *Registry) Lookup(name string) (Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// ApplicationCommands returns the registry in the shape Discord expects,
// sorted by name
func (r *Registry) ApplicationCommands() []*discordgo.ApplicationCommand {
	list := make([]*discordgo.ApplicationCommand, 0, len(r.commands))
	for _, cmd := range r.commands {
		list = append(list, &discordgo.ApplicationCommand{
			Name:        cmd.Name,
			Description: cmd.Description,
			Options:     cmd.Options,
		})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}
