package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) resolveCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "resolve <query words...>",
		Short: "Print the themes a query covers",
		Long: "Builds the index from the configured catalog and resolves the query " +
			"formed by joining the arguments with spaces. Themes are printed one per line.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadPipeline(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer p.close()

			m, err := p.resolver.Match(strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(m)
			}
			for _, theme := range m.Themes {
				fmt.Fprintln(out, theme)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the match details as JSON")
	return cmd
}
