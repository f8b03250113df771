package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/NiHoel/cirspecte-site/internal/cli/output"
	"github.com/NiHoel/cirspecte-site/internal/loader"
	"github.com/NiHoel/cirspecte-site/internal/timeline"
)

// NewTimelineCommand creates the timeline command.
func NewTimelineCommand() *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "timeline <tour>",
		Short: "Show the timeline items of a tour",
		Long: `Load a tour and print what the timeline displays for a window.

Vertices that are closer together than half an item width at the current
scale are merged into range items. The window defaults to the span of all
timestamps.`,
		Example: `  # Whole tour at the configured width
  cirspecte timeline tours/2019.yaml

  # One afternoon on a narrow timeline
  cirspecte timeline tours/2019.yaml --start 2019-05-01T12:00:00Z --end 2019-05-01T18:00:00Z --width 400

  # Without aggregation
  cirspecte timeline tours/2019.yaml --aggregate=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := loadTour(cmd.Context(), cmdCtx, args[0]); err != nil {
				return err
			}
			if err := applyWindow(cmdCtx, start, end); err != nil {
				return err
			}
			return runTimeline(cmdCtx)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Window start (RFC 3339, date or Unix milliseconds)")
	cmd.Flags().StringVar(&end, "end", "", "Window end (RFC 3339, date or Unix milliseconds)")
	cmd.Flags().Int("width", 0, "Timeline width in pixels")
	cmd.Flags().Bool("aggregate", true, "Merge items that would overlap")

	return cmd
}

// applyWindow overrides the fitted window with the given bounds.
func applyWindow(cmdCtx *CommandContext, start, end string) error {
	if start == "" && end == "" {
		return nil
	}
	s := cmdCtx.Engine.Settings()
	from, to := s.Start.Get(), s.End.Get()

	var err error
	if start != "" {
		if from, err = loader.ParseTimestamp(start); err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
	}
	if end != "" {
		if to, err = loader.ParseTimestamp(end); err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}
	}
	if !to.After(from) {
		return fmt.Errorf("window end %s is not after start %s", to.Format(time.RFC3339), from.Format(time.RFC3339))
	}

	// Explicit windows may leave the loaded span.
	s.Min.Set(time.Time{})
	s.Max.Set(time.Time{})
	s.SetWindow(from, to)
	return nil
}

func runTimeline(cmdCtx *CommandContext) error {
	r := cmdCtx.Renderer
	tl := cmdCtx.Engine.Timeline()
	start, end := tl.Window()
	items := tl.Display()

	switch r.EffectiveMode() {
	case output.ModeJSON:
		out := output.TimelineOutput{
			Start:      start,
			End:        end,
			MsPerPixel: tl.MillisecondsPerPixel(),
			Critical:   tl.CriticalDuration().String(),
			Items:      make([]output.TimelineItem, 0, len(items)),
		}
		for _, it := range items {
			out.Items = append(out.Items, output.TimelineItem{
				ID: it.ID, Group: it.Group, Start: it.Start, End: it.End, Members: it.Members,
			})
		}
		return r.JSON(out)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Timeline"))
		r.Println("")
		r.Println(output.FormatKeyValue("Window", formatWindow(start, end)))
		r.Println(output.FormatKeyValue("Merge below", tl.CriticalDuration().String()))
		r.Println("")
		for _, it := range items {
			r.Println("- " + output.FormatCode(it.ID) + " " + describeItem(it))
		}
	default:
		r.Header(1, "timeline")
		r.KeyValue("Window", formatWindow(start, end))
		r.KeyValue("Merge below", tl.CriticalDuration().String())
		r.Println("")
		for _, it := range items {
			r.Printf("  %s %s\n", r.ID(it.ID), describeItem(it))
		}
	}
	return nil
}

func formatWindow(start, end time.Time) string {
	if start.IsZero() || end.IsZero() {
		return "unbounded"
	}
	return start.Format(time.RFC3339) + " .. " + end.Format(time.RFC3339)
}

func describeItem(it timeline.Item) string {
	if it.IsRange() {
		return fmt.Sprintf("[%s] %s .. %s (%d vertices: %s)",
			it.Group, it.Start.Format(time.RFC3339), it.End.Format(time.RFC3339),
			len(it.Members), strings.Join(it.Members, ", "))
	}
	return fmt.Sprintf("[%s] %s", it.Group, it.Start.Format(time.RFC3339))
}
