package pipeline

import (
	"context"
	"fmt"

	"news_bot/internal/model"
	"news_bot/internal/report"
)

// Safe runs fn and converts any error or panic into a best-effort admin
// notification. It always returns normally and never touches state itself.
// Calls are serialized, so the slot check and the state writes of one run
// cannot interleave with another run in the same process.
func (p *Pipeline) Safe(ctx context.Context, name string, fn func(context.Context) (Outcome, error)) (out Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			out = p.fail(ctx, name, fmt.Errorf("panic: %v", r))
		}
	}()

	out, err := fn(ctx)
	if err != nil {
		return p.fail(ctx, name, err)
	}
	return out
}

// TriggerScheduled is the error-boundary entry point for scheduled runs.
func (p *Pipeline) TriggerScheduled(ctx context.Context) Outcome {
	return p.Safe(ctx, ModeScheduled, p.RunScheduled)
}

// TriggerPreview is the error-boundary entry point for previews.
func (p *Pipeline) TriggerPreview(ctx context.Context) Outcome {
	return p.Safe(ctx, ModePreview, p.Preview)
}

func (p *Pipeline) fail(ctx context.Context, name string, err error) Outcome {
	p.log.Error("run failed", "mode", name, "error", err)
	if nerr := p.notifier.Notify(ctx, model.ChannelAdmin, report.Failure(name, err)); nerr != nil {
		p.log.Error("deliver failure report", "mode", name, "error", nerr)
	}
	return Outcome{Mode: name, Status: model.StatusFailed, Error: err.Error()}
}
