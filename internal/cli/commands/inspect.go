package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/NiHoel/cirspecte-site/internal/cli/output"
	"github.com/NiHoel/cirspecte-site/internal/engine"
	"github.com/NiHoel/cirspecte-site/internal/loader"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <tour>",
		Short: "Load a tour and list its groups",
		Long: `Load a tour document, including every document it references through
"tours", and list the temporal and spatial groups it defines.

Output adapts to environment:
  - Terminal: Styled table
  - Piped/Scripted: Markdown table (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # Inspect a tour
  cirspecte inspect tours/2019.yaml

  # Inspect as JSON
  cirspecte inspect tours/2019.yaml -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := loadTour(cmd.Context(), cmdCtx, args[0])
			if err != nil {
				return err
			}
			return runInspect(cmdCtx, res)
		},
	}

	return cmd
}

func runInspect(cmdCtx *CommandContext, res loader.Result) error {
	eng := cmdCtx.Engine
	r := cmdCtx.Renderer
	groups := groupInfos(eng)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(output.InspectOutput{
			Load:     summarize(res),
			Groups:   groups,
			Vertices: len(eng.Registry().Vertices()),
			Edges:    len(eng.Registry().Edges()),
		})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Tour"))
		r.Println("")
		r.Println(output.FormatKeyValue("Documents", strconv.Itoa(len(res.Documents))))
		r.Println(output.FormatKeyValue("Vertices", strconv.Itoa(len(eng.Registry().Vertices()))))
		r.Println(output.FormatKeyValue("Edges", strconv.Itoa(len(eng.Registry().Edges()))))
		r.Println(output.FormatKeyValue("Skipped", strconv.Itoa(res.Failed)))
		r.Println("")
		r.Println(output.FormatHeader(2, "Groups"))
		r.Println("")
		r.Println(groupTable(groups).RenderMarkdown())
	default:
		r.Header(1, fmt.Sprintf("tour (%d documents)", len(res.Documents)))
		r.KeyValue("Vertices", strconv.Itoa(len(eng.Registry().Vertices())))
		r.KeyValue("Edges", strconv.Itoa(len(eng.Registry().Edges())))
		if res.Failed > 0 {
			r.KeyValue("Skipped", r.Styles().Warning.Render(strconv.Itoa(res.Failed)))
		}
		r.Println("")
		t := groupTable(groups)
		t.SetStyle(table.StyleLight)
		r.Println(t.Render())
	}
	return nil
}

// groupInfos lists temporal groups parent-first, then spatial groups.
func groupInfos(eng *engine.Engine) []output.GroupInfo {
	reg := eng.Registry()
	var groups []output.GroupInfo
	for _, g := range reg.TemporalGroups() {
		groups = append(groups, output.GroupInfo{
			Kind:        "temporal",
			ID:          g.ID,
			Title:       g.Title,
			SuperGroup:  g.SuperGroup,
			Depth:       g.Depth,
			Multiselect: g.Multiselect,
			Children:    len(g.SubGroups) + len(g.SpatialGroups),
		})
	}
	for _, g := range reg.SpatialGroups() {
		groups = append(groups, output.GroupInfo{
			Kind:        "spatial",
			ID:          g.ID,
			Title:       g.Name,
			SuperGroup:  g.SuperGroup,
			Depth:       g.Depth,
			Multiselect: g.Multiselect,
			Children:    len(g.Vertices),
		})
	}
	return groups
}

func groupTable(groups []output.GroupInfo) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Kind", "ID", "Title", "Parent", "Depth", "Multiselect", "Children"})
	for _, g := range groups {
		title := g.Title
		if g.Kind == "temporal" {
			title = strings.Repeat("  ", g.Depth) + title
		}
		t.AppendRow(table.Row{g.Kind, g.ID, title, g.SuperGroup, g.Depth, g.Multiselect, g.Children})
	}
	return t
}
