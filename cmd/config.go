package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/yojitsu/internal/config"
	"github.com/derickschaefer/yojitsu/internal/model"
	"github.com/derickschaefer/yojitsu/internal/render"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage yojitsu configuration",
	Long:  `Read and write yojitsu configuration stored in config.json.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a template config.json in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigFile
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config.json already exists at %s (delete it first to re-initialise)", path)
		}
		if err := config.WriteFile(path, config.Template()); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), nil, "Created %s", path)
		fmt.Fprintln(cmd.OutOrStdout(), "  Edit it, or use 'yojitsu config set <key> <value>'.")
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.Flags{
			Format:   globalFlags.Format,
			DBPath:   globalFlags.DBPath,
			Timezone: globalFlags.Timezone,
		})
		if err != nil {
			return err
		}

		src := "(not found)"
		if cfg.ConfigPath != "" {
			src = cfg.ConfigPath
		}
		rows := [][]string{
			{"default_format", cfg.Format},
			{"db_path", cfg.DBPath},
			{"timezone", cfg.Timezone},
			{"chart_width", strconv.Itoa(cfg.ChartWidth)},
			{"chart_height", strconv.Itoa(cfg.ChartHeight)},
			{"pie_size", strconv.Itoa(cfg.PieSize)},
			{"config_file", src},
		}

		format := globalFlags.Format
		if format == "" || format == render.FormatTable {
			printSimpleTable(cmd.OutOrStdout(), []string{"KEY", "VALUE"}, func(add func(...string)) {
				for _, r := range rows {
					add(r...)
				}
			})
			return nil
		}
		result := &model.Result{
			Kind:        model.KindTable,
			GeneratedAt: time.Now(),
			Command:     "config get",
			Data:        &model.Table{Headers: []string{"key", "value"}, Rows: rows},
			Stats:       model.ResultStats{Items: len(rows)},
		}
		return render.Render(cmd.OutOrStdout(), result, format)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in config.json",
	Long: `Set one key in config.json, creating the file from the template when it
does not exist yet.

Keys: default_format, db_path, timezone, chart_width, chart_height, pie_size`,
	Example: `  yojitsu config set timezone Asia/Tokyo
  yojitsu config set chart_width 1024`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]

		// Load existing file or start from template
		path := config.DefaultConfigFile
		f := config.Template()
		existing, err := config.ReadFile(path)
		switch {
		case err == nil:
			f = *existing
		case !errors.Is(err, os.ErrNotExist):
			return err
		}

		if err := f.Set(key, val); err != nil {
			return err
		}
		if err := config.WriteFile(path, f); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), nil, "Set %s in %s", key, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
