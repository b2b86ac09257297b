package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/orderrecon/internal/adapters/platforms"
	"github.com/eshaffer321/orderrecon/internal/domain/record"
)

// NewPlatformsCommand creates the platforms command.
func NewPlatformsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List supported export types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := platforms.DefaultRegistry(nil)
			out := cmd.OutOrStdout()

			if rootOpts.Format == "json" {
				return WriteJSON(out, map[string][]platforms.Profile{
					"pos":    registry.List(record.OriginPOS),
					"source": registry.List(record.OriginSource),
				})
			}
			for _, side := range []record.Origin{record.OriginPOS, record.OriginSource} {
				fmt.Fprintf(out, "%s:\n", side)
				for _, p := range registry.List(side) {
					fmt.Fprintf(out, "  %-10s %s\n", p.Name, p.DisplayName)
				}
			}
			return nil
		},
	}
}
