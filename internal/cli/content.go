package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stress-guru-go/internal/assessment"
	"stress-guru-go/internal/content"
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Inspect assessment content",
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the content directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := content.Load(cmd.Context(), content.DirFetcher{Dir: contentDir})
		if err != nil {
			return fmt.Errorf("content is invalid: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "content OK: %d questions, %d keyword tiers, %d categories\n",
			len(c.Questions), len(c.Keywords), len(c.Bands))
		writeBands(out, c)
		return nil
	},
}

var bandsCmd = &cobra.Command{
	Use:   "bands",
	Short: "Print the severity band table for every category",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := content.Load(cmd.Context(), content.DirFetcher{Dir: contentDir})
		if err != nil {
			return err
		}
		writeBands(cmd.OutOrStdout(), c)
		return nil
	},
}

func init() {
	contentCmd.AddCommand(validateCmd)
}

func writeBands(out io.Writer, c *assessment.Content) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tRANGE\tLABEL")
	for _, cat := range c.SortedCategories() {
		for _, b := range c.Bands[cat] {
			fmt.Fprintf(w, "%s\t%s\t%s\n", cat, bandRange(b), b.Label)
		}
	}
	_ = w.Flush()
}

func bandRange(b assessment.Band) string {
	if b.Max == nil {
		return fmt.Sprintf("%d+", b.Min)
	}
	return strings.Join([]string{fmt.Sprint(b.Min), fmt.Sprint(*b.Max)}, "-")
}
