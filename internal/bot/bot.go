// Package bot exposes the diary pipeline as a Telegram chat bot.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/lueurxax/diary-replier/internal/core/domain"
	"github.com/lueurxax/diary-replier/internal/core/errors"
	"github.com/lueurxax/diary-replier/internal/core/ports"
	"github.com/lueurxax/diary-replier/internal/platform/config"
	"github.com/lueurxax/diary-replier/internal/platform/worker"
	"github.com/lueurxax/diary-replier/internal/process/pipeline"
)

var errUpdatesClosed = errors.New("telegram update channel closed")

// DiaryProcessor runs one entry through the pipeline.
type DiaryProcessor interface {
	Process(ctx context.Context, req pipeline.Request) (domain.DiaryReplyOutput, error)
}

// Sender delivers outgoing messages. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// userPrefs are per-chat choices made with /preset and /length.
type userPrefs struct {
	preset string
	length string
}

type Bot struct {
	cfg       *config.Config
	processor DiaryProcessor
	presets   ports.PresetStore
	api       *tgbotapi.BotAPI
	sender    Sender
	logger    *zerolog.Logger

	mu    sync.Mutex
	prefs map[int64]userPrefs
}

// New connects to Telegram. presets may be nil when storage is disabled.
func New(cfg *config.Config, processor DiaryProcessor, presets ports.PresetStore, logger *zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("creating bot API: %w", err)
	}

	b := newBot(cfg, processor, presets, api, logger)
	b.api = api

	return b, nil
}

func newBot(cfg *config.Config, processor DiaryProcessor, presets ports.PresetStore, sender Sender, logger *zerolog.Logger) *Bot {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Bot{
		cfg:       cfg,
		processor: processor,
		presets:   presets,
		sender:    sender,
		logger:    logger,
		prefs:     make(map[int64]userPrefs),
	}
}

// Run polls for updates until ctx is canceled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeout

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	b.logger.Info().Str("username", b.api.Self.UserName).Msg("Telegram bot started")

	return b.serve(ctx, updates)
}

// serve handles updates concurrently, at most maxConcurrentHandlers at a time,
// and waits for in-flight handlers before returning.
func (b *Bot) serve(ctx context.Context, updates <-chan tgbotapi.Update) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	sem := make(chan struct{}, maxConcurrentHandlers)

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("bot run context canceled: %w", ctx.Err())
		case update, ok := <-updates:
			if !ok {
				return errUpdatesClosed
			}

			if update.Message == nil || update.Message.From == nil {
				continue
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return fmt.Errorf("bot run context canceled: %w", ctx.Err())
			}

			wg.Add(1)

			go func(msg *tgbotapi.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				defer worker.RecoverPanic(b.logger, "bot message")

				b.handleMessage(ctx, msg)
			}(update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	if msg.IsCommand() {
		b.logger.Info().Str(LogFieldCommand, msg.Command()).Int64(LogFieldUserID, msg.From.ID).Msg("Handling command")

		registry := b.newCommandRegistry()
		if !registry.route(ctx, msg) {
			b.reply(msg, msgUnknown)
		}

		return
	}

	if strings.TrimSpace(msg.Text) == "" {
		return
	}

	b.handleDiary(ctx, msg)
}

func (b *Bot) getPrefs(userID int64) userPrefs {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.prefs[userID]
}

func (b *Bot) updatePrefs(userID int64, fn func(p *userPrefs)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.prefs[userID]
	fn(&p)
	b.prefs[userID] = p
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	for _, part := range splitMessage(text, MaxMessageSize) {
		out := tgbotapi.NewMessage(msg.Chat.ID, part)
		out.ReplyToMessageID = msg.MessageID

		if _, err := b.sender.Send(out); err != nil {
			b.logger.Error().Err(err).Int64(LogFieldUserID, msg.From.ID).Msg("failed to send reply")
		}
	}
}

// diaryUserID namespaces Telegram ids so they never collide with API users.
func diaryUserID(telegramID int64) string {
	return userIDPrefix + strconv.FormatInt(telegramID, 10)
}

// splitMessage cuts text into rune-safe parts of at most limit runes,
// preferring line breaks.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var parts []string

	for len(runes) > limit {
		cut := limit

		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}

		parts = append(parts, strings.TrimSpace(string(runes[:cut])))
		runes = runes[cut:]
	}

	if rest := strings.TrimSpace(string(runes)); rest != "" {
		parts = append(parts, rest)
	}

	return parts
}
