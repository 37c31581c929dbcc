package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/Lumos-Labs-HQ/txsynth/internal/config"
	"github.com/Lumos-Labs-HQ/txsynth/internal/logger"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	Version = "0.3.0"
)

func showBanner() {
	greenColor := color.New(color.FgGreen, color.Bold)

	banner := []string{
		"╔════════════════════════════════════════════════════════╗",
		"║   ████████╗██╗  ██╗███████╗██╗   ██╗███╗   ██╗         ║",
		"║   ╚══██╔══╝╚██╗██╔╝██╔════╝╚██╗ ██╔╝████╗  ██║         ║",
		"║      ██║    ╚███╔╝ ███████╗ ╚████╔╝ ██╔██╗ ██║         ║",
		"║      ██║    ██╔██╗ ╚════██║  ╚██╔╝  ██║╚██╗██║         ║",
		"║      ██║   ██╔╝ ██╗███████║   ██║   ██║ ╚████║         ║",
		"║      ╚═╝   ╚═╝  ╚═╝╚══════╝   ╚═╝   ╚═╝  ╚═══╝         ║",
		"║                                                        ║",
		"║        Synthetic customers & card transactions         ║",
		"╚════════════════════════════════════════════════════════╝",
	}

	for _, line := range banner {
		greenColor.Println(line)
	}

	fmt.Print("                    ")
	color.New(color.FgCyan, color.Bold).Print("Version: ")
	color.New(color.FgYellow, color.Bold).Printf("%s\n", Version)
}

var rootCmd = &cobra.Command{
	Use:   "txsynth",
	Short: "Generate synthetic customer and transaction datasets",
	Long: `
txsynth synthesizes a customer table and a dependent card-transaction table
from a declarative YAML configuration, validates both against their schemas
and writes them out.

Outputs:
- CSV, JSON or Parquet files
- PostgreSQL, MySQL or SQLite tables
- optional upload to S3-compatible storage or GCS`,

	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("txsynth version %s\n", Version)
			os.Exit(0)
		}

		if len(args) == 0 {
			showBanner()
			fmt.Println()
			cmd.Help()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./txsynth.yaml)")
	rootCmd.PersistentFlags().Int64("seed", 0, "Random seed (overrides the config file)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit JSON logs")

	viper.BindPFlag("seed", rootCmd.PersistentFlags().Lookup("seed"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.json", rootCmd.PersistentFlags().Lookup("log-json"))

	rootCmd.Flags().BoolP("version", "v", false, "Show CLI version")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env")
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("txsynth")
	}

	viper.SetEnvPrefix("TXSYNTH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.ReadInConfig()
}

// loadConfig loads the config and builds the logger it asks for.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, logger.New(cfg.Log.Level, cfg.Log.JSON), nil
}
