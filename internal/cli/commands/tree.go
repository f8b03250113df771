package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/NiHoel/cirspecte-site/internal/cli/output"
	"github.com/NiHoel/cirspecte-site/internal/mapview"
)

// NewTreeCommand creates the tree command.
func NewTreeCommand() *cobra.Command {
	var hide []string

	cmd := &cobra.Command{
		Use:   "tree <tour>",
		Short: "Show the map container tree of a tour",
		Long: `Load a tour and print the map projection: control groups for temporal
groups, layer groups for spatial groups, points for vertices and the shared
line container.`,
		Example: `  # Print the tree
  cirspecte tree tours/2019.yaml

  # Hide a group before printing
  cirspecte tree tours/2019.yaml --hide park`,
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
			for _, id := range hide {
				if err := cmdCtx.Engine.Map().Hide(id); err != nil {
					return err
				}
			}
			return runTree(cmdCtx)
		},
	}

	cmd.Flags().StringSliceVar(&hide, "hide", nil, "Group ids to hide before printing")

	return cmd
}

func runTree(cmdCtx *CommandContext) error {
	r := cmdCtx.Renderer
	root := cmdCtx.Engine.Map().Tree()

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(treeNode(root))
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Map"))
		r.Println("")
		for _, child := range root.Children {
			writeMarkdownNode(r, child, 0)
		}
	default:
		r.Header(1, "map")
		for _, child := range root.Children {
			writeTextNode(r, child, 0)
		}
	}
	return nil
}

func treeNode(n mapview.Node) output.TreeNode {
	out := output.TreeNode{Kind: n.Kind.String(), ID: n.ID, Title: n.Title, Hidden: n.Hidden}
	for _, c := range n.Children {
		out.Children = append(out.Children, treeNode(c))
	}
	return out
}

func nodeLabel(n mapview.Node) string {
	if n.Title != "" && n.Title != n.ID {
		return n.ID + " (" + n.Title + ")"
	}
	return n.ID
}

func writeMarkdownNode(r *output.Renderer, n mapview.Node, depth int) {
	line := strings.Repeat("  ", depth) + "- " + n.Kind.String() + " " + output.FormatCode(n.ID)
	if n.Title != "" && n.Title != n.ID {
		line += " " + n.Title
	}
	if n.Hidden {
		line += " _(hidden)_"
	}
	r.Println(line)
	for _, c := range n.Children {
		writeMarkdownNode(r, c, depth+1)
	}
}

func writeTextNode(r *output.Renderer, n mapview.Node, depth int) {
	label := r.ID(nodeLabel(n))
	if n.Hidden {
		label += " " + r.Muted("hidden")
	}
	r.Printf("%s%s %s\n", strings.Repeat("  ", depth), r.Muted(n.Kind.String()), label)
	for _, c := range n.Children {
		writeTextNode(r, c, depth+1)
	}
}
