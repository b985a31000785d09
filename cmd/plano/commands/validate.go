package commands

import (
	"github.com/planoci/plano/internal/app"
	"github.com/spf13/cobra"
)

func (c *CLI) newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [pipeline]",
		Short: "Resolve a pipeline document without emitting a plan",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return nil
			}
			parameters, _ := cmd.Flags().GetStringArray("parameter")
			contexts, _ := cmd.Flags().GetStringArray("context")
			maxDepth, _ := cmd.Flags().GetInt("max-depth")

			return c.app.Validate(cmd.Context(), args[0], app.ValidateOptions{
				Parameters: parameters,
				Context:    contexts,
				MaxDepth:   maxDepth,
			})
		},
	}
	cmd.Flags().StringArrayP("parameter", "p", nil, "Override a pipeline parameter (key=value, repeatable)")
	cmd.Flags().StringArrayP("context", "c", nil, "Set an ambient context fact (key=value, repeatable)")
	cmd.Flags().Int("max-depth", 0, "Maximum template nesting depth (0 uses the default)")
	return cmd
}
