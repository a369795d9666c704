package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// templatesCmd lists the report templates available after loading config.
var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the available report templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		mainConfig, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tPAGE\tORIENTATION\tCOLUMNS\tROWS/CHUNK\tPER DONOR\tDEFAULT")

		for _, name := range mainConfig.TemplateNames() {
			tpl, err := mainConfig.ReportTemplate(name)
			if err != nil {
				return err
			}

			chunk := "all"
			if tpl.RowsPerChunk > 0 {
				chunk = fmt.Sprint(tpl.RowsPerChunk)
			}
			def := ""
			if name == mainConfig.Template {
				def = "*"
			}

			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%v\t%s\n",
				tpl.Name, tpl.PageSize, tpl.Orientation, tpl.ListingColumnCount(), chunk, tpl.PerDonor, def)
		}

		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)
}
