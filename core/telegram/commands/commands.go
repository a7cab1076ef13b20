// Package commands describes slash commands registered with the bot.
package commands

import tele "gopkg.in/telebot.v4"

// Command is a slash command handler with the metadata shown in the
// Telegram command menu.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are rejected for everyone but the configured admin.
	AdminOnly bool
	// Hidden commands work but are not advertised.
	Hidden  bool
	Aliases []string
}

// Listed reports whether the command belongs in the public menu.
func (c Command) Listed() bool { return !c.Hidden && !c.AdminOnly }
