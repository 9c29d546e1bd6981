package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/go-cmp/cmp"

	"news_bot/internal/config"
	"news_bot/internal/model"
	"news_bot/internal/pipeline"
	"news_bot/internal/state"
	"news_bot/internal/storage"
)

// --- mocks ---

type sentMsg struct {
	ChatID    int64
	Text      string
	ParseMode string
}

type mockAPI struct {
	mu      sync.Mutex
	sent    []sentMsg
	err     error
	updates chan tgbotapi.Update
}

func (m *mockAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m.err != nil {
		return tgbotapi.Message{}, m.err
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		m.mu.Lock()
		m.sent = append(m.sent, sentMsg{ChatID: msg.ChatID, Text: msg.Text, ParseMode: msg.ParseMode})
		m.mu.Unlock()
	}
	return tgbotapi.Message{}, nil
}

func (m *mockAPI) GetUpdatesChan(_ tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	if m.updates == nil {
		m.updates = make(chan tgbotapi.Update)
	}
	return m.updates
}

func (m *mockAPI) StopReceivingUpdates() {}

func (m *mockAPI) lastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1].Text
}

func (m *mockAPI) allSent() []sentMsg {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMsg, len(m.sent))
	copy(out, m.sent)
	return out
}

type mockRunner struct {
	scheduled int
	previews  int
}

func (m *mockRunner) TriggerScheduled(context.Context) pipeline.Outcome {
	m.scheduled++
	return pipeline.Outcome{Mode: pipeline.ModeScheduled, Status: model.StatusHold, Slot: "2026-10-17T01:00:00Z", Candidates: 2}
}

func (m *mockRunner) TriggerPreview(context.Context) pipeline.Outcome {
	m.previews++
	return pipeline.Outcome{Mode: pipeline.ModePreview, Status: model.StatusPreview, Candidates: 4}
}

// --- helpers ---

func newTestBot(t *testing.T) (*Bot, *mockAPI, *state.Store) {
	t.Helper()
	kv, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	threshold := 3
	cfg := &config.Config{
		PrimaryChatID: -1001,
		AdminChatID:   42,
		AllowedUsers:  []int64{7},
		TZOffsetHours: 9,
		Settings: config.Partial{
			SearchKeywords:   []string{"club"},
			MinSendThreshold: &threshold,
		},
	}
	st := state.New(kv, log)
	api := &mockAPI{}
	b := &Bot{api: api, cfg: cfg, state: st, log: log}
	return b, api, st
}

func requireContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("reply missing %q, got:\n%s", want, got)
	}
}

func command(userID int64, text string) tgbotapi.Update {
	name := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: 42},
		From:     &tgbotapi.User{ID: userID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}}
}

// --- tests ---

func TestNotify(t *testing.T) {
	ctx := context.Background()

	t.Run("routes channels", func(t *testing.T) {
		b, api, _ := newTestBot(t)
		if err := b.Notify(ctx, model.ChannelPrimary, "<b>news</b>"); err != nil {
			t.Fatalf("notify primary: %v", err)
		}
		if err := b.Notify(ctx, model.ChannelAdmin, "report"); err != nil {
			t.Fatalf("notify admin: %v", err)
		}
		want := []sentMsg{
			{ChatID: -1001, Text: "<b>news</b>", ParseMode: tgbotapi.ModeHTML},
			{ChatID: 42, Text: "report", ParseMode: tgbotapi.ModeHTML},
		}
		if diff := cmp.Diff(want, api.allSent()); diff != "" {
			t.Errorf("sent mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unknown channel", func(t *testing.T) {
		b, _, _ := newTestBot(t)
		if err := b.Notify(ctx, model.Channel("nowhere"), "x"); err == nil {
			t.Error("expected error for unknown channel")
		}
	})

	t.Run("send error is returned", func(t *testing.T) {
		b, api, _ := newTestBot(t)
		api.err = errors.New("Bad Request: chat not found")
		err := b.Notify(ctx, model.ChannelPrimary, "x")
		if err == nil || !strings.Contains(err.Error(), "chat not found") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestHandleHelp(t *testing.T) {
	b, api, _ := newTestBot(t)
	b.handleHelp(42)
	requireContains(t, api.lastText(), "/set <field> <value>")
	requireContains(t, api.lastText(), config.FieldForceHours)
}

func TestHandleStatus(t *testing.T) {
	ctx := context.Background()
	b, api, st := newTestBot(t)

	b.handleStatus(ctx, 42)
	requireContains(t, api.lastText(), "Last sent slot: none")
	requireContains(t, api.lastText(), "Watermark: not set")
	requireContains(t, api.lastText(), "min_send_threshold: 3")

	if err := st.SaveSlot(ctx, "2026-10-17T01:00:00Z"); err != nil {
		t.Fatalf("save slot: %v", err)
	}
	wm := time.Date(2026, 10, 17, 0, 45, 0, 0, time.UTC)
	if _, err := st.AdvanceWatermark(ctx, time.Time{}, wm); err != nil {
		t.Fatalf("advance watermark: %v", err)
	}

	b.handleStatus(ctx, 42)
	requireContains(t, api.lastText(), "Last sent slot: 2026-10-17 10:00")
	requireContains(t, api.lastText(), "Watermark: 2026-10-17 09:45")
}

func TestHandleSetUnset(t *testing.T) {
	ctx := context.Background()

	t.Run("set overrides static value", func(t *testing.T) {
		b, api, _ := newTestBot(t)
		b.handleSet(ctx, 42, "force_hours 9, 21")
		requireContains(t, api.lastText(), "force_hours set to: 9, 21")

		b.handleSettings(ctx, 42)
		requireContains(t, api.lastText(), "force_hours: 9, 21")
	})

	t.Run("invalid value", func(t *testing.T) {
		b, api, _ := newTestBot(t)
		b.handleSet(ctx, 42, "max_loops many")
		requireContains(t, api.lastText(), "must be an integer")
	})

	t.Run("missing value", func(t *testing.T) {
		b, api, _ := newTestBot(t)
		b.handleSet(ctx, 42, "max_loops")
		requireContains(t, api.lastText(), "usage: /set")
	})

	t.Run("unset falls back", func(t *testing.T) {
		b, api, _ := newTestBot(t)
		b.handleSet(ctx, 42, "min_send_threshold 8")
		requireContains(t, api.lastText(), "min_send_threshold set to: 8")

		b.handleUnset(ctx, 42, "min_send_threshold")
		requireContains(t, api.lastText(), "min_send_threshold override removed, now: 3")
	})

	t.Run("unset unknown field", func(t *testing.T) {
		b, api, _ := newTestBot(t)
		b.handleUnset(ctx, 42, "colour")
		requireContains(t, api.lastText(), "Usage: /unset")
	})
}

func TestHandleRunAndPreview(t *testing.T) {
	ctx := context.Background()

	t.Run("no runner", func(t *testing.T) {
		b, api, _ := newTestBot(t)
		b.handleRun(ctx, 42)
		requireContains(t, api.lastText(), "not available")
	})

	t.Run("delegates to runner", func(t *testing.T) {
		b, api, _ := newTestBot(t)
		r := &mockRunner{}
		b.SetRunner(r)

		b.handleRun(ctx, 42)
		requireContains(t, api.lastText(), "scheduled run: hold")
		requireContains(t, api.lastText(), "Candidates: 2")

		b.handlePreview(ctx, 42)
		requireContains(t, api.lastText(), "preview run: preview")

		if diff := cmp.Diff([2]int{1, 1}, [2]int{r.scheduled, r.previews}); diff != "" {
			t.Errorf("runner calls (-want +got):\n%s", diff)
		}
	})
}

func TestRunChecksAllowedUsers(t *testing.T) {
	b, api, _ := newTestBot(t)
	api.updates = make(chan tgbotapi.Update)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	api.updates <- command(99, "/status")
	api.updates <- command(7, "/settings")
	cancel()
	<-done

	sent := api.allSent()
	if len(sent) != 2 {
		t.Fatalf("expected 2 replies, got %d", len(sent))
	}
	requireContains(t, sent[0].Text, "Access denied.")
	requireContains(t, sent[1].Text, "Settings:")
}
