// Package clock exposes the current time as a tool. The model has no clock
// of its own and needs one to anchor phrases like "this quarter" or "latest".
package clock

import (
	"context"
	"fmt"
	"time"

	"github.com/Jeff-67/TonyStock/internal/tool"
)

// CurrentTimeTool reports the current date and time.
type CurrentTimeTool struct {
	now func() time.Time
}

// NewCurrentTimeTool creates the tool. now may be nil, defaulting to the
// system clock; tests inject a fixed clock.
func NewCurrentTimeTool(now func() time.Time) *CurrentTimeTool {
	if now == nil {
		now = time.Now
	}
	return &CurrentTimeTool{now: now}
}

func (t *CurrentTimeTool) Name() string { return "current_time" }

func (t *CurrentTimeTool) Declaration() tool.Declaration {
	return tool.Declaration{
		Name:        t.Name(),
		Description: "Get the current date and time. Use this to interpret relative time expressions like 'today', 'this quarter', or 'latest'.",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"timezone": {
					Type:        tool.TypeString,
					Description: "IANA timezone name, e.g. 'Asia/Taipei'. Defaults to UTC.",
				},
			},
		},
	}
}

func (t *CurrentTimeTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	loc := time.UTC
	if tz, ok := args["timezone"].(string); ok && tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			return "", fmt.Errorf("unknown timezone %q: %w", tz, err)
		}
		loc = parsed
	}

	now := t.now().In(loc)
	return now.Format("2006-01-02 15:04:05 MST (Monday)"), nil
}
