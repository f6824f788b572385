package main

import (
	"os"
	"runtime/debug"

	"github.com/brizzai/discord-verify/internal/auth"
	"github.com/brizzai/discord-verify/internal/bot"
	"github.com/brizzai/discord-verify/internal/config"
	"github.com/brizzai/discord-verify/internal/logger"
	"github.com/brizzai/discord-verify/internal/server"
	"github.com/brizzai/discord-verify/internal/store"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	Execute()
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "discord-verify",
	Short: "Discord OAuth2 verification server and bot",
	Long: `discord-verify receives the Discord OAuth2 redirect, stores the profile and guild list
of every user who authorizes the application, and runs a bot that posts the verification
button and answers questions about stored users.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the callback server and the bot (default)",
	RunE:  runServe,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	// Place version check in PreRun to ensure flags are parsed first
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newRecordsCmd())
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	if err := logger.InitLogger(&cfg.Logging); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Caught panic", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			os.Exit(2)
		}
	}()

	logger.Info("Starting discord-verify",
		zap.String("version", config.Version()),
		zap.String("address", cfg.Server.Addr()),
		zap.String("store", string(cfg.Store.Driver)),
		zap.Bool("bot", cfg.Bot.Enabled),
	)

	app := fx.New(
		fx.Supply(cfg),
		fx.WithLogger(logger.FxLogger),
		store.Module,
		auth.Module,
		server.Module,
		bot.Module,
	)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}
