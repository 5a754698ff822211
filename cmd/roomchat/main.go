// Package main provides the roomchat CLI entrypoint.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/joss/roomchat/internal/config"
	"github.com/joss/roomchat/internal/logging"
	"github.com/joss/roomchat/internal/runtime"
)

var (
	version = "0.1.0"

	apiURL     string
	levelID    string
	sessionID  string
	configPath string
	jsonOut    bool
	verbose    bool
	noColor    bool

	shutdown *runtime.ShutdownManager
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "roomchat",
		Short: "Play AI escape-room games from the terminal",
		Long: `roomchat: a terminal client for the escape-room game server.

Usage modes:
  roomchat                 Start the chat screen for a new session
  roomchat --level taoist  Start a specific level
  roomchat <command>       Run a single game operation (see below)

The backend is read from ROOMCHAT_API_URL (default http://localhost:8000/api).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor || !term.IsTerminal(int(os.Stdout.Fd())) {
				color.NoColor = true
			}
			if err := config.EnvError(); err != nil {
				return err
			}
			return setupLogging(cmd.Name() == "roomchat")
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			shutdown.Shutdown()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Game backend base URL (overrides ROOMCHAT_API_URL)")
	rootCmd.PersistentFlags().StringVarP(&levelID, "level", "l", "", "Level id (see 'roomchat levels')")
	rootCmd.PersistentFlags().StringVar(&configPath, "config-path", "", "Backend scenario file (overrides --level)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr at debug level")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session id (generated when empty)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "game", Title: "Game:"},
		&cobra.Group{ID: "session", Title: "Sessions:"},
	)

	for _, c := range []*cobra.Command{sayCmd(), uploadCmd(), submitCmd(), itemsCmd(), captureCmd()} {
		c.GroupID = "game"
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{sessionCmd(), levelsCmd()} {
		c.GroupID = "session"
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(doctorCmd(), versionCmd())

	shutdown = runtime.NewShutdownManager(runtime.DefaultShutdownTimeout)
	stop := shutdown.ListenForSignals()
	defer stop()

	if err := rootCmd.ExecuteContext(shutdown.Context()); err != nil {
		shutdown.Shutdown()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging sends logs to the log file, or to stderr with --verbose. The
// chat screen owns the terminal, so it always logs to the file.
func setupLogging(chat bool) error {
	env := config.Env()
	level := logging.Level(env.LogLevel)

	if verbose && !chat {
		logging.Configure(logging.LevelDebug, os.Stderr)
		return nil
	}

	path := config.LogFile()
	if err := config.EnsureDir(filepath.Dir(path)); err != nil {
		logging.Configure(level, io.Discard)
		return nil
	}
	if verbose {
		level = logging.LevelDebug
	}
	closer, err := logging.ConfigureFile(level, path)
	if err != nil {
		logging.Configure(level, io.Discard)
		return nil
	}
	shutdown.RegisterSimple("log file", func() {
		logging.Configure(level, io.Discard)
		closer.Close()
	})
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show roomchat version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("roomchat version %s\n", version)
		},
	}
}
