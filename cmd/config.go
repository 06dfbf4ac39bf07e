package cmd

import (
	"fmt"

	cfgpkg "github.com/KaramelBytes/propdash-cli/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set PropDash configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		for _, k := range cfgpkg.Keys() {
			fmt.Printf("%s: %s\n", k, c.Get(k))
		}
		if len(c.ExtraAliases) > 0 {
			fmt.Printf("extra_aliases: %s\n", c.Get("extra_aliases"))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set one configuration key and save the file. Keys: default_domain,
delimiter, encoding, sheet_name, sheet_index, current_year, log_level,
log_format, log_output, serve_addr, export_dir, and extra_aliases, which takes
field=alias1,alias2 and appends to that field's aliases.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := cfg.Set(key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Printf("✓ Set %s\n", key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
