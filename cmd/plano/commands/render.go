package commands

import (
	"io"
	"os"

	"github.com/planoci/plano/internal/app"
	"github.com/spf13/cobra"
)

func (c *CLI) newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [pipeline]",
		Short: "Resolve a pipeline document into a flat execution plan",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}
			parameters, _ := cmd.Flags().GetStringArray("parameter")
			contexts, _ := cmd.Flags().GetStringArray("context")
			maxDepth, _ := cmd.Flags().GetInt("max-depth")
			outputPath, _ := cmd.Flags().GetString("output")
			watch, _ := cmd.Flags().GetBool("watch")

			out := cmd.OutOrStdout()
			if outputPath != "" {
				file, err := os.Create(outputPath)
				if err != nil {
					return err
				}
				defer func() {
					_ = file.Close()
				}()
				out = io.Writer(file)
			}

			return c.app.Render(cmd.Context(), args[0], app.RenderOptions{
				Parameters: parameters,
				Context:    contexts,
				MaxDepth:   maxDepth,
				Output:     out,
				Watch:      watch,
			})
		},
	}
	cmd.Flags().StringArrayP("parameter", "p", nil, "Override a pipeline parameter (key=value, repeatable)")
	cmd.Flags().StringArrayP("context", "c", nil, "Set an ambient context fact (key=value, repeatable)")
	cmd.Flags().Int("max-depth", 0, "Maximum template nesting depth (0 uses the default)")
	cmd.Flags().StringP("output", "o", "", "Write the plan to a file instead of stdout")
	cmd.Flags().BoolP("watch", "w", false, "Re-render whenever a referenced document changes")
	return cmd
}
