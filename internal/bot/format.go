package bot

import (
	"fmt"
	"strings"
	"time"

	"news_bot/internal/config"
	"news_bot/internal/pipeline"
	"news_bot/internal/state"
)

const timeLayout = "2006-01-02 15:04 MST"

// FormatStatus formats the persisted state and the effective settings.
func FormatStatus(st state.State, s config.Settings, loc *time.Location) string {
	var b strings.Builder
	if st.LastSentTarget == "" {
		b.WriteString("Last sent slot: none\n")
	} else if t, err := time.Parse(time.RFC3339, st.LastSentTarget); err == nil {
		fmt.Fprintf(&b, "Last sent slot: %s\n", t.In(loc).Format(timeLayout))
	} else {
		fmt.Fprintf(&b, "Last sent slot: %s\n", st.LastSentTarget)
	}
	if st.HasWatermark {
		fmt.Fprintf(&b, "Watermark: %s\n", st.LastCheckedTime.In(loc).Format(timeLayout))
	} else {
		b.WriteString("Watermark: not set\n")
	}
	b.WriteString("\n")
	b.WriteString(FormatSettings(s))
	return b.String()
}

// FormatSettings lists every resolved setting field.
func FormatSettings(s config.Settings) string {
	var b strings.Builder
	b.WriteString("Settings:\n")
	for _, field := range config.Fields {
		value := s.FormatField(field)
		if value == "" {
			value = "(none)"
		}
		fmt.Fprintf(&b, "  %s: %s\n", field, value)
	}
	return b.String()
}

// FormatOutcome summarizes a run for the admin who triggered it.
func FormatOutcome(out pipeline.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s run: %s", out.Mode, out.Status)
	if out.Slot != "" {
		fmt.Fprintf(&b, "\nSlot: %s", out.Slot)
	}
	fmt.Fprintf(&b, "\nCandidates: %d", out.Candidates)
	if out.Error != "" {
		fmt.Fprintf(&b, "\nError: %s", out.Error)
	}
	return b.String()
}
