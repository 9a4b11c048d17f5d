// Package cli implements the pond command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datapond/internal/paths"
	"github.com/mesh-intelligence/datapond/pkg/pond"
	"github.com/mesh-intelligence/datapond/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	root      string
	jsonMode  bool
}

// app carries the state shared by one command invocation.
type app struct {
	flags     rootFlags
	configDir string
	settings  settings
	logger    *slog.Logger
	pond      *pond.Pond
}

// NewRootCmd creates the top-level "pond" command with global flags and all
// subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "pond",
		Short: "An append-only data pond with stable semantic names",
		Long: `pond keeps every raw data file it is given, unchanged, in an append-only
pond. Each file gets a metadata record, and a view maps the file's semantic
name (the filename after its first separator) onto the newest version.`,
		Version: pond.Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}
			return a.setup(cmd)
		},
	}

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", errUsage, err)
	})
	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/pond)")
	root.PersistentFlags().StringVar(&a.flags.root, "root", "", "project root holding data_store and data_index (default: current directory)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newIngestCmd(a),
		newResolveCmd(a),
		newViewCmd(a),
		newDescribeCmd(a),
		newRebuildCmd(a),
		newConvertCmd(a),
		newRegisterDerivedCmd(a),
		newListCmd(a),
		newHistoryCmd(a),
		newSearchCmd(a),
		newStatsCmd(a),
		newTreeCmd(a),
	)
	return root
}

// setup resolves the configuration directory and project root, builds the
// logger and opens the pond.
func (a *app) setup(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	s, err := loadSettings(configDir)
	if err != nil {
		return err
	}
	root, err := paths.ResolveRoot(a.flags.root, s.Root)
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}
	s.Root = root

	logger, err := newLogger(cmd.ErrOrStderr(), s.LogLevel, s.LogFormat)
	if err != nil {
		return err
	}

	p, err := pond.Open(s.Config(), pond.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	logger.Debug("configuration loaded", "config_dir", configDir, "root", root)

	a.configDir = configDir
	a.settings = s
	a.logger = logger
	a.pond = p
	return nil
}

// errUsage marks errors caused by bad input rather than system failure.
var errUsage = errors.New("invalid usage")

// usageArgs marks argument validation failures as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return fmt.Errorf("%w: %w", errUsage, err)
		}
		return nil
	}
}

// Execute runs the root command and exits with the appropriate code. An
// interrupt stops ingestion between inbox entries.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, NewRootCmd(), os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// run executes root with args and returns the process exit code, printing
// any error to stderr.
func run(ctx context.Context, root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// exitCode maps an error to exit code 1 for user errors and 2 for system
// errors.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, errUsage),
		errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrInvalidView),
		errors.Is(err, types.ErrInvalidArgument),
		errors.Is(err, types.ErrUnsupportedType):
		return exitUserError
	default:
		return exitSysError
	}
}
