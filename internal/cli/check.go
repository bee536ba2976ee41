package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Build the index and report catalog statistics",
		Long: "Loads the configured catalog, builds and verifies the index and lists " +
			"phrases that can never match. Exits non-zero when the catalog is invalid.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadPipeline(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer p.close()

			if err := p.index.Verify(); err != nil {
				return err
			}

			st := p.index.Stats()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "themes\t%d\n", st.Themes)
			fmt.Fprintf(w, "phrases\t%d\n", st.Phrases)
			fmt.Fprintf(w, "words\t%d\n", st.Words)
			fmt.Fprintf(w, "postings\t%d\n", st.Postings)
			fmt.Fprintf(w, "unreachable\t%d\n", st.Unreachable)
			fmt.Fprintf(w, "fingerprint\t%s\n", st.Fingerprint)
			fmt.Fprintf(w, "build time\t%s\n", p.buildDuration)
			if err := w.Flush(); err != nil {
				return err
			}

			for id := 0; id < p.index.NumPhrases(); id++ {
				ph, _ := p.index.Phrase(id)
				if ph.Unreachable() {
					fmt.Fprintf(cmd.OutOrStdout(), "unreachable phrase: %q\n", ph.Text)
				}
			}
			return nil
		},
	}
}
