package app

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalogued recordings, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := setup(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		entries, err := c.Catalog.List(listLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "No recordings.")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCREATED\tSIZE\tFRAMES\tSTATUS\tLOCATION")
		for _, e := range entries {
			loc := e.Dir
			if e.ProjectDir != "" {
				loc = e.ProjectDir
			}
			fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%s\t%s\t%s\n",
				e.ID.String()[:8], humanize.Time(e.CreatedAt), e.Width, e.Height,
				humanize.Comma(int64(e.Frames)), e.Status, loc)
		}
		return tw.Flush()
	},
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "maximum entries (0 for all)")
	rootCmd.AddCommand(listCmd)
}
