package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// commandHandler is a function that handles a specific bot command.
type commandHandler func(ctx context.Context, msg *tgbotapi.Message)

// commandRegistry holds the mapping of command names to their handlers.
type commandRegistry struct {
	handlers map[string]commandHandler
}

// newCommandRegistry creates a new command registry for the bot.
func (b *Bot) newCommandRegistry() *commandRegistry {
	r := &commandRegistry{handlers: make(map[string]commandHandler)}

	r.handlers[CmdStart] = b.handleHelp
	r.handlers[CmdHelp] = b.handleHelp
	r.handlers[CmdPreset] = b.handlePreset
	r.handlers[CmdLength] = b.handleLength

	return r
}

// route dispatches msg and reports whether a handler existed.
func (r *commandRegistry) route(ctx context.Context, msg *tgbotapi.Message) bool {
	h, ok := r.handlers[msg.Command()]
	if !ok {
		return false
	}

	h(ctx, msg)

	return true
}
