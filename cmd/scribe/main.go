// Command scribe is an interactive assistant that walks a writer through
// gathering context, structuring, drafting and refining a piece of content.
//
// Usage:
//
//	scribe start [--type blog_post] [--plain] <topic...>
//	scribe resume [session-id] [--plain]
//	scribe list
//	scribe export <session-id> [--format markdown|yaml|json] [--output file]
//	scribe serve
//	scribe prompts init [--dir prompts] [--force]
//
// Settings come from scribe.yaml, a .env file and SCRIBE_* variables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "scribe: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	defer a.Close()
	return newRootCmd(a).ExecuteContext(ctx)
}

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	logFile    string
	logLevel   string
	dbPath     string
}

func newRootCmd(a *app) *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "scribe",
		Short:         "Guided content creation, one question at a time",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `scribe helps you write blog posts, threads and other short pieces by
interviewing you. A session moves through four phases: context gathering,
structure development, content development and refinement. Everything you
say is stored, so a session can be resumed or exported at any time.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipSetup] != "" {
				return nil
			}
			return a.setup(cmd.Context(), flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default: ./scribe.yaml or "+configDirHint()+")")
	pf.StringVar(&flags.logFile, "log-file", "", "log file (overrides config)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	pf.StringVar(&flags.dbPath, "db", "", "session database path (overrides config)")

	root.AddCommand(
		newStartCmd(a),
		newResumeCmd(a),
		newListCmd(a),
		newExportCmd(a),
		newServeCmd(a),
		newPromptsCmd(),
		newVersionCmd(),
	)
	return root
}

// skipSetup marks commands that need neither config nor database.
const skipSetup = "skip-setup"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSetup: "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "scribe %s\n", version)
		},
	}
}
