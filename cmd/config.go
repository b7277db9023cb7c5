package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gorendir/gorendir/internal/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration settings",
	Long:  `Manage configuration settings for gorendir.`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init [SAVE_DIR]",
	Short: "Initialize configuration file",
	Long:  `Create a new configuration file with the default settings.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var saveDir string
		if len(args) > 0 {
			saveDir = args[0]
		}

		if err := config.InitConfig(saveDir); err != nil {
			return err
		}

		configPath, err := config.GetConfigPath()
		if err != nil {
			return err
		}

		fmt.Printf("Created configuration file: %s\n", configPath)
		return nil
	},
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration file path and settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := config.GetConfigPath()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration file: %s\n\n", configPath)

		cfg, err := config.NewConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		fmt.Printf("save_directory: %s\n", cfg.SaveDirectory)
		fmt.Printf("subtitle_languages: %s\n", strings.Join(cfg.SubtitleLanguages, ", "))
		fmt.Printf("max_resolution: %d\n", cfg.MaxResolution)
		if cfg.DatabaseURL != "" {
			fmt.Println("database_url: (set)")
		} else {
			fmt.Println("database_url: (not set, archive disabled)")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
