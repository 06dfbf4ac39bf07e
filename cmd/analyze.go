package cmd

import (
	"github.com/KaramelBytes/propdash-cli/internal/session"
	"github.com/spf13/cobra"
)

var (
	anaLoad       loadFlags
	anaFilter     filterFlags
	anaFormat     string
	anaOutputPath string
	anaQuality    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|glob>...",
	Short: "Clean listing data and report metrics, segments and trends",
	Long: `Analyze loads one or more CSV/TSV/XLSX exports, maps their headers to the
canonical schema, cleans them and prints a market dashboard for the records
that pass the filter flags. Multiple files are concatenated by column union.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := expandInputs(args)
		if err != nil {
			return err
		}
		opts, err := anaLoad.options(cmd)
		if err != nil {
			return err
		}
		sel, err := anaFilter.selection(cmd)
		if err != nil {
			return err
		}
		snap, err := session.LoadFiles(paths, opts)
		if err != nil {
			return err
		}

		var out []byte
		if anaQuality {
			out, err = render(snap.Quality, anaFormat)
		} else {
			out, err = render(snap.Dashboard(sel), anaFormat)
		}
		if err != nil {
			return err
		}
		return emit(out, anaOutputPath, "analysis")
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaLoad.register(analyzeCmd)
	anaFilter.register(analyzeCmd)
	analyzeCmd.Flags().StringVar(&anaFormat, "format", "md", "output format: md | json | yaml")
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report")
	analyzeCmd.Flags().BoolVar(&anaQuality, "quality-only", false, "print only the data quality report")
}
