package bot

import (
	"context"
	"fmt"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `News bot is running.

Articles matching the search keywords are collected every tick and
sent to the news channel once per two-hour slot.

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Status:
/status — current slot, watermark and settings
/settings — effective settings

Settings:
/set <field> <value> — override a setting (lists are comma separated)
/unset <field> — remove an override

Runs:
/preview — collect without sending or saving state
/run — run the scheduled pass now

Fields: `+fieldList())
}

func (b *Bot) handleStatus(ctx context.Context, chatID int64) {
	st, err := b.state.Load(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	settings := b.state.Settings(ctx, b.cfg.Settings)
	b.reply(chatID, FormatStatus(st, settings, b.cfg.Location()))
}

func (b *Bot) handleSettings(ctx context.Context, chatID int64) {
	b.reply(chatID, FormatSettings(b.state.Settings(ctx, b.cfg.Settings)))
}

func (b *Bot) handleSet(ctx context.Context, chatID int64, args string) {
	field, value, err := ParseSetArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	if err := b.state.SetOverride(ctx, field, value); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	settings := b.state.Settings(ctx, b.cfg.Settings)
	b.log.Info("setting overridden", "field", field, "value", value)
	b.reply(chatID, fmt.Sprintf("%s set to: %s", field, settings.FormatField(field)))
}

func (b *Bot) handleUnset(ctx context.Context, chatID int64, args string) {
	field, err := ParseFieldArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /unset <field>")
		return
	}
	if err := b.state.ClearOverride(ctx, field); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	settings := b.state.Settings(ctx, b.cfg.Settings)
	b.log.Info("setting override cleared", "field", field)
	b.reply(chatID, fmt.Sprintf("%s override removed, now: %s", field, settings.FormatField(field)))
}

func (b *Bot) handlePreview(ctx context.Context, chatID int64) {
	if b.runner == nil {
		b.reply(chatID, "Runs are not available.")
		return
	}
	b.reply(chatID, FormatOutcome(b.runner.TriggerPreview(ctx)))
}

func (b *Bot) handleRun(ctx context.Context, chatID int64) {
	if b.runner == nil {
		b.reply(chatID, "Runs are not available.")
		return
	}
	b.reply(chatID, FormatOutcome(b.runner.TriggerScheduled(ctx)))
}
