package cmd

import (
	"fmt"

	"github.com/KaramelBytes/propdash-cli/internal/session"
	"github.com/spf13/cobra"
)

var (
	cmpLoad       loadFlags
	cmpFilter     filterFlags
	cmpTarget     session.Target
	cmpFormat     string
	cmpOutputPath string
)

var competeCmd = &cobra.Command{
	Use:   "compete <file|glob>...",
	Short: "Score one listing against comparable listings",
	Long: `Compete locates a target listing by --id, --row or --community/--layout,
selects comparable listings (same layout, or area within 20%) among the
records that pass the filter flags, and scores price, area value, attention
and features.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmpTarget.ID == "" && cmpTarget.Row == 0 && cmpTarget.Community == "" {
			return fmt.Errorf("set a target with --id, --row or --community")
		}
		paths, err := expandInputs(args)
		if err != nil {
			return err
		}
		opts, err := cmpLoad.options(cmd)
		if err != nil {
			return err
		}
		sel, err := cmpFilter.selection(cmd)
		if err != nil {
			return err
		}
		snap, err := session.LoadFiles(paths, opts)
		if err != nil {
			return err
		}
		res, err := snap.Compete(cmpTarget, sel)
		if err != nil {
			return err
		}
		out, err := render(res, cmpFormat)
		if err != nil {
			return err
		}
		return emit(out, cmpOutputPath, "competitiveness report")
	},
}

func init() {
	rootCmd.AddCommand(competeCmd)
	cmpLoad.register(competeCmd)
	cmpFilter.register(competeCmd)
	competeCmd.Flags().StringVar(&cmpTarget.ID, "id", "", "target record ID")
	competeCmd.Flags().IntVar(&cmpTarget.Row, "row", 0, "target 1-based row among cleaned records")
	competeCmd.Flags().StringVar(&cmpTarget.Community, "community", "", "target community (substring match)")
	competeCmd.Flags().StringVar(&cmpTarget.Layout, "layout", "", "target layout, used with --community")
	competeCmd.Flags().StringVar(&cmpFormat, "format", "md", "output format: md | json | yaml")
	competeCmd.Flags().StringVarP(&cmpOutputPath, "output", "o", "", "optional path to write the report")
}
