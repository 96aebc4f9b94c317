package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewCollectionsCommand creates the collections command.
func NewCollectionsCommand() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "collections",
		Short: "List the entity collections probed during resolution",
		Long: `Print the configured entity collections in scan order. Scan order is
also the tie-break when the same name resolves in more than one
collection.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			collections := getConfig().Collections
			if outputFormat == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string][]string{"collections": collections})
			}
			for i, c := range collections {
				fmt.Fprintf(cmd.OutOrStdout(), "%2d. %s\n", i+1, c)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format (text|json)")
	return cmd
}
