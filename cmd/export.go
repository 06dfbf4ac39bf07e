package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/propdash-cli/internal/analysis"
	"github.com/KaramelBytes/propdash-cli/internal/export"
	"github.com/KaramelBytes/propdash-cli/internal/session"
	"github.com/spf13/cobra"
)

var (
	expLoad       loadFlags
	expFilter     filterFlags
	expFormat     string
	expOutputPath string
)

var exportCmd = &cobra.Command{
	Use:   "export <file|glob>...",
	Short: "Write cleaned records to CSV, XLSX or SQLite",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := expandInputs(args)
		if err != nil {
			return err
		}
		format, out, err := exportTarget(paths[0])
		if err != nil {
			return err
		}
		opts, err := expLoad.options(cmd)
		if err != nil {
			return err
		}
		sel, err := expFilter.selection(cmd)
		if err != nil {
			return err
		}
		snap, err := session.LoadFiles(paths, opts)
		if err != nil {
			return err
		}
		ds := analysis.Apply(snap.Dataset, sel)
		if err := export.Write(out, format, ds, snap.Quality); err != nil {
			return err
		}
		fmt.Printf("✓ Exported %d records to %s\n", ds.Len(), out)
		return nil
	},
}

// exportTarget resolves the format and output path from the flags, the
// config export_dir and the first input name.
func exportTarget(first string) (export.Format, string, error) {
	var format export.Format
	var err error
	switch {
	case expFormat != "":
		format, err = export.ParseFormat(expFormat)
	case expOutputPath != "":
		format, err = export.FormatFromPath(expOutputPath)
	default:
		format = export.FormatCSV
	}
	if err != nil {
		return "", "", err
	}
	if expOutputPath != "" {
		return format, expOutputPath, nil
	}
	base := strings.TrimSuffix(filepath.Base(first), filepath.Ext(first))
	ext := string(format)
	if format == export.FormatSQLite {
		ext = "db"
	}
	return format, filepath.Join(currentConfig().ExportDir, base+".clean."+ext), nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	expLoad.register(exportCmd)
	expFilter.register(exportCmd)
	exportCmd.Flags().StringVar(&expFormat, "format", "", "export format: csv | xlsx | sqlite (inferred from --output if omitted)")
	exportCmd.Flags().StringVarP(&expOutputPath, "output", "o", "", "output path (default <export_dir>/<input>.clean.<ext>)")
}
