// Package pipeline runs one collection pass end to end: slot check, search,
// send gate, delivery, state update and the admin report.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"news_bot/internal/collector"
	"news_bot/internal/config"
	"news_bot/internal/model"
	"news_bot/internal/report"
	"news_bot/internal/schedule"
	"news_bot/internal/state"
)

// Run modes.
const (
	ModeScheduled = "scheduled"
	ModePreview   = "preview"
)

// Notifier delivers text to a channel.
type Notifier interface {
	Notify(ctx context.Context, ch model.Channel, text string) error
}

// Collector gathers the candidates of one run.
type Collector interface {
	Collect(ctx context.Context, s config.Settings, watermark time.Time) collector.Result
}

// Outcome is the structured result of a run.
type Outcome struct {
	Mode       string             `json:"mode"`
	Status     model.Status       `json:"status"`
	Slot       string             `json:"slot"`
	Watermark  time.Time          `json:"watermark"`
	Candidates int                `json:"candidates"`
	WouldSend  bool               `json:"would_send"`
	Articles   []model.Article    `json:"articles,omitempty"`
	Summary    model.Summary      `json:"summary"`
	Reports    []model.LoopReport `json:"reports,omitempty"`
	Newest     *time.Time         `json:"newest,omitempty"`
	Oldest     *time.Time         `json:"oldest,omitempty"`
	Stop       string             `json:"stop,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// Deps lists the pipeline collaborators.
type Deps struct {
	Collector       Collector
	State           *state.Store
	Notifier        Notifier
	Static          config.Partial
	Location        *time.Location
	InitialLookback time.Duration
	Clock           schedule.Clock
	Log             *slog.Logger
}

// Pipeline runs collection passes.
type Pipeline struct {
	mu sync.Mutex

	collector Collector
	state     *state.Store
	notifier  Notifier
	static    config.Partial
	loc       *time.Location
	lookback  time.Duration
	clock     schedule.Clock
	log       *slog.Logger
}

// New creates a Pipeline.
func New(d Deps) *Pipeline {
	clock := d.Clock
	if clock == nil {
		clock = time.Now
	}
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Pipeline{
		collector: d.Collector,
		state:     d.State,
		notifier:  d.Notifier,
		static:    d.Static,
		loc:       loc,
		lookback:  d.InitialLookback,
		clock:     clock,
		log:       d.Log,
	}
}

// RunScheduled performs the gated run for the current slot. A slot that was
// already handled is a no-op. State is written only after the primary
// notification was delivered.
func (p *Pipeline) RunScheduled(ctx context.Context) (Outcome, error) {
	now := p.clock()
	slot := schedule.Slot(now, p.loc)
	slotID := schedule.SlotID(slot)

	st, err := p.state.Load(ctx)
	if err != nil {
		return Outcome{}, err
	}
	if st.LastSentTarget == slotID {
		p.log.Info("slot already handled", "slot", slotID)
		return Outcome{Mode: ModeScheduled, Status: model.StatusSkipped, Slot: slotID, Watermark: st.LastCheckedTime}, nil
	}

	settings := p.state.Settings(ctx, p.static)
	watermark := p.watermark(st, now)
	res := p.collector.Collect(ctx, settings, watermark)

	out := p.outcome(ModeScheduled, slotID, watermark, res)
	out.WouldSend = schedule.ShouldSend(len(res.Articles), schedule.LocalHour(now, p.loc), settings)
	out.Status = model.StatusHold

	var notes []string
	if out.WouldSend {
		err := p.notifier.Notify(ctx, model.ChannelPrimary, report.Notification(res.Articles, p.loc))
		if err != nil {
			p.log.Error("deliver notification", "slot", slotID, "error", err)
			out.Status = model.StatusFailed
			out.Error = err.Error()
			notes = append(notes, "primary delivery failed: "+err.Error())
		} else {
			out.Status = model.StatusSent
			notes = append(notes, p.persist(ctx, slotID, watermark, res.Newest)...)
		}
	}

	p.log.Info("run finished",
		"slot", slotID,
		"status", out.Status,
		"candidates", out.Candidates,
		"threshold", settings.MinSendThreshold,
	)

	p.sendDigest(ctx, report.Run{
		Mode:       ModeScheduled,
		Status:     out.Status,
		Slot:       slot,
		Loc:        p.loc,
		Watermark:  watermark,
		Candidates: out.Candidates,
		Threshold:  settings.MinSendThreshold,
		WouldSend:  out.WouldSend,
		Reports:    res.Reports,
		Oldest:     res.Oldest,
		Newest:     res.Newest,
		StopReason: string(res.Stop),
		FetchErr:   res.Err,
		Notes:      notes,
	})
	return out, nil
}

// Preview runs the full collection without the slot check, the primary
// notification or any state write. The report goes to the admin channel.
func (p *Pipeline) Preview(ctx context.Context) (Outcome, error) {
	now := p.clock()
	slot := schedule.Slot(now, p.loc)
	slotID := schedule.SlotID(slot)

	st, err := p.state.Load(ctx)
	if err != nil {
		return Outcome{}, err
	}
	settings := p.state.Settings(ctx, p.static)
	watermark := p.watermark(st, now)
	res := p.collector.Collect(ctx, settings, watermark)

	out := p.outcome(ModePreview, slotID, watermark, res)
	out.Status = model.StatusPreview
	out.WouldSend = schedule.ShouldSend(len(res.Articles), schedule.LocalHour(now, p.loc), settings)
	out.Articles = res.Articles

	p.sendDigest(ctx, report.Run{
		Mode:       ModePreview,
		Status:     out.Status,
		Slot:       slot,
		Loc:        p.loc,
		Watermark:  watermark,
		Candidates: out.Candidates,
		Threshold:  settings.MinSendThreshold,
		WouldSend:  out.WouldSend,
		Reports:    res.Reports,
		Oldest:     res.Oldest,
		Newest:     res.Newest,
		StopReason: string(res.Stop),
		FetchErr:   res.Err,
	})
	return out, nil
}

// persist writes the slot and the advanced watermark independently; a
// failure of one does not prevent the other.
func (p *Pipeline) persist(ctx context.Context, slotID string, watermark, newest time.Time) []string {
	var notes []string
	if err := p.state.SaveSlot(ctx, slotID); err != nil {
		p.log.Error("persist slot", "slot", slotID, "error", err)
		notes = append(notes, fmt.Sprintf("slot not saved: %v", err))
	}
	if _, err := p.state.AdvanceWatermark(ctx, watermark, newest); err != nil {
		p.log.Error("persist watermark", "watermark", newest, "error", err)
		notes = append(notes, fmt.Sprintf("watermark not saved: %v", err))
	}
	return notes
}

func (p *Pipeline) watermark(st state.State, now time.Time) time.Time {
	if st.HasWatermark {
		return st.LastCheckedTime
	}
	return now.Add(-p.lookback)
}

func (p *Pipeline) outcome(mode, slotID string, watermark time.Time, res collector.Result) Outcome {
	out := Outcome{
		Mode:       mode,
		Slot:       slotID,
		Watermark:  watermark,
		Candidates: len(res.Articles),
		Summary:    report.Summarize(res.Reports),
		Reports:    res.Reports,
		Stop:       string(res.Stop),
	}
	if len(res.Articles) > 0 {
		newest, oldest := res.Newest, res.Oldest
		out.Newest, out.Oldest = &newest, &oldest
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

func (p *Pipeline) sendDigest(ctx context.Context, r report.Run) {
	if err := p.notifier.Notify(ctx, model.ChannelAdmin, report.Digest(r)); err != nil {
		p.log.Error("deliver report", "mode", r.Mode, "error", err)
	}
}
