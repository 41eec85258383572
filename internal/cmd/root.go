package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ty-ras/start/internal/config"
	"github.com/ty-ras/start/internal/initialize"
	"github.com/ty-ras/start/internal/input"
	"github.com/ty-ras/start/internal/materialize"
	"github.com/ty-ras/start/internal/orchestrator"
	"github.com/ty-ras/start/internal/output"
	"github.com/ty-ras/start/internal/registry"
	"github.com/ty-ras/start/internal/stage"
	"github.com/ty-ras/start/internal/ui"
)

// Version is set at build time.
var Version = "0.1.0"

type rootOptions struct {
	verbose     bool
	configFile  string
	registryURL string
	maxRounds   int
}

// NewRootCmd creates the tyras-start command. Every stage with a flag
// binding gets a string flag named after its key.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	stages := allStages(initialize.PathDetector{})

	rootCmd := &cobra.Command{
		Use:   "tyras-start [options...] [folder]",
		Short: "Create a new TyRAS project",
		Long: `Creates a ready-to-build TyRAS project from templates.

All options and folder are optional as command-line arguments.
If any of them is omitted, the program will prompt for their values.`,
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	for _, st := range stages {
		if st.Flag == nil || st.Flag.Positional {
			continue
		}
		rootCmd.Flags().StringP(st.Key, st.Flag.Alias, "", st.Flag.Description)
	}
	rootCmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Enable verbose output")
	rootCmd.Flags().StringVar(&opts.configFile, "config", "", "Path to the config file")
	rootCmd.Flags().StringVar(&opts.registryURL, "registry", "", "Package registry URL")
	rootCmd.Flags().IntVar(&opts.maxRounds, "max-rounds", 0, "Give up after this many input rounds (0: never)")

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, _ []string) {
		fmt.Fprint(cmd.OutOrStdout(), helpText(stages))
	})

	return rootCmd
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

func allStages(d initialize.Detector) []stage.Spec {
	return stage.Sorted(append(input.Stages(), initialize.Stages(d)...))
}

func run(cmd *cobra.Command, args []string, opts *rootOptions) error {
	output.SetupLogging(opts.verbose)

	loaded, err := config.NewLoader().Load(opts.configFile)
	if err != nil {
		return err
	}
	cfg := config.Resolve(loaded, config.Overrides{
		RegistryURL: opts.registryURL,
		MaxRounds:   opts.maxRounds,
	})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	output.Debug("configuration loaded", "registry", cfg.Registry.URL, "maxRounds", cfg.Input.MaxRounds)

	out := cmd.OutOrStdout()
	fs := afero.NewOsFs()
	client := registry.NewClient(registry.Options{
		URL:     cfg.Registry.URL,
		Timeout: cfg.Registry.Timeout,
		Retries: cfg.Registry.Retries,
	})

	o := orchestrator.New(orchestrator.Options{
		Collector: stage.NewCollector(ui.NewPrompter(), out),
		Validator: input.NewValidator(fs),
		Materializer: materialize.New(materialize.Options{
			Out:         fs,
			Resolver:    client,
			Observer:    ui.NewReporter(cmd.ErrOrStderr()),
			Concurrency: cfg.Registry.Concurrency,
		}),
		Initializer: initialize.New(initialize.ExecRunner{
			Stdout: out,
			Stderr: cmd.ErrOrStderr(),
		}),
		Stages:     input.Stages(),
		InitStages: initialize.Stages(initialize.PathDetector{}),
		Out:        out,
		MaxRounds:  cfg.Input.MaxRounds,
	})

	result, err := o.Run(cmd.Context(), commandFlags{cmd: cmd, args: args})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, output.SuccessStyle.Render(fmt.Sprintf("%s Project created in %q.", output.IconRocket, result.Config.Base().FolderName)))
	return nil
}

// commandFlags exposes the flags set on the command line as a
// stage.FlagSource.
type commandFlags struct {
	cmd  *cobra.Command
	args []string
}

func (f commandFlags) Lookup(name string) (string, bool) {
	flags := f.cmd.Flags()
	if flags.Lookup(name) == nil || !flags.Changed(name) {
		return "", false
	}
	v, err := flags.GetString(name)
	if err != nil {
		return "", false
	}
	return v, true
}

func (f commandFlags) Positional(index int) (string, bool) {
	if index < 0 || index >= len(f.args) {
		return "", false
	}
	return f.args[index], true
}
