package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lueurxax/diary-replier/internal/core/domain"
	"github.com/lueurxax/diary-replier/internal/core/errors"
	"github.com/lueurxax/diary-replier/internal/platform/observability"
	"github.com/lueurxax/diary-replier/internal/process/pipeline"
)

func (b *Bot) handleHelp(_ context.Context, msg *tgbotapi.Message) {
	observability.BotMessages.WithLabelValues(kindCommand).Inc()
	b.reply(msg, msgHelp)
}

func (b *Bot) handlePreset(ctx context.Context, msg *tgbotapi.Message) {
	observability.BotMessages.WithLabelValues(kindCommand).Inc()

	preset, err := domain.NormalizePreset(msg.CommandArguments())
	if err != nil {
		b.reply(msg, msgPresetUsage)
		return
	}

	b.updatePrefs(msg.From.ID, func(p *userPrefs) { p.preset = preset })

	if b.presets == nil {
		b.reply(msg, fmt.Sprintf(msgPresetSaved, preset)+" "+msgPresetNoStore)
		return
	}

	userID := diaryUserID(msg.From.ID)
	stored := &domain.UserPreset{UserID: userID, Preset: preset}

	if existing, err := b.presets.GetUserPreset(ctx, userID); err == nil {
		stored.MoodDefault = existing.MoodDefault
	}

	if err := b.presets.UpsertUserPreset(ctx, stored); err != nil {
		b.logger.Warn().Err(err).Str(LogFieldUserID, userID).Msg("failed to save preset")
	}

	b.reply(msg, fmt.Sprintf(msgPresetSaved, preset))
}

func (b *Bot) handleLength(_ context.Context, msg *tgbotapi.Message) {
	observability.BotMessages.WithLabelValues(kindCommand).Inc()

	length := strings.ToLower(strings.TrimSpace(msg.CommandArguments()))
	if length != domain.LengthShort && length != domain.LengthNormal {
		b.reply(msg, msgLengthUsage)
		return
	}

	b.updatePrefs(msg.From.ID, func(p *userPrefs) { p.length = length })
	b.reply(msg, fmt.Sprintf(msgLengthSaved, length))
}

// handleDiary sends one variant: the short reply when the user chose short,
// otherwise the normal one. Crisis replies carry the same text in both.
func (b *Bot) handleDiary(ctx context.Context, msg *tgbotapi.Message) {
	prefs := b.getPrefs(msg.From.ID)

	length := prefs.length
	if length == "" {
		length = domain.LengthNormal
	}

	in := domain.DiaryInput{
		Text:    msg.Text,
		UserID:  diaryUserID(msg.From.ID),
		Date:    msg.Time().Format("2006-01-02"),
		Options: domain.Options{Length: length},
	}

	if err := in.Validate(); err != nil {
		observability.BotMessages.WithLabelValues(kindInvalid).Inc()

		if errors.Is(err, errors.ErrTextTooLong) {
			b.reply(msg, msgTooLong)
		} else {
			b.reply(msg, msgTooShort)
		}

		return
	}

	out, err := b.processor.Process(ctx, pipeline.Request{
		Input:          in,
		PresetOverride: prefs.preset,
		RequestID:      fmt.Sprintf("tg-%d", msg.MessageID),
	})
	if err != nil {
		observability.BotMessages.WithLabelValues(kindError).Inc()
		b.logger.Error().Err(err).Str(LogFieldUserID, in.UserID).Msg("diary reply failed")
		b.reply(msg, msgUnavailable)

		return
	}

	observability.BotMessages.WithLabelValues(kindDiary).Inc()

	text := out.Normal()
	if length == domain.LengthShort || text == "" {
		text = out.Short()
	}

	if text == "" {
		text = msgUnavailable
	}

	b.reply(msg, text)
}
