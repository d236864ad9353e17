package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/promptcraft/internal/config"
	"github.com/ChamsBouzaiene/promptcraft/internal/factory"
	"github.com/ChamsBouzaiene/promptcraft/internal/gateway"
	"github.com/ChamsBouzaiene/promptcraft/internal/logging"
	"github.com/ChamsBouzaiene/promptcraft/internal/session"
)

// app carries what every command needs once flags are parsed.
type app struct {
	v       *viper.Viper
	cfgFile string
	envFile string

	cfg    *config.Config
	logger *zap.Logger

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// gw overrides the configured gateway; tests set it.
	gw gateway.Completer
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{v: config.New(), in: in, out: out, errOut: errOut}
	return a.rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "promptcraft",
		Short: "Refine, template and run LLM prompts",
		Long: `PromptCraft turns a rough prompt into a structured {{variable}} template,
lets you fill in the variables and run it, and keeps a version history and a
saved prompt library.`,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup() },
		PersistentPostRun: func(cmd *cobra.Command, args []string) { a.teardown() },
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runREPL(cmd.Context())
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default: promptcraft.yaml in . or the user config dir)")
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading configuration")
	flags.StringP("log-level", "l", "", "log level (debug, info, warn, error)")
	flags.String("log-file", "", "write logs to this file instead of stderr")
	flags.StringP("provider", "p", "", "LLM provider (azure, openai, anthropic, ollama, lmstudio)")
	flags.StringP("model", "m", "", "model name for non-Azure providers")
	flags.String("library", "", "prompt library path")
	flags.String("library-backend", "", "prompt library backend (json, sqlite)")

	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("log.file", flags.Lookup("log-file"))
	_ = a.v.BindPFlag("provider", flags.Lookup("provider"))
	_ = a.v.BindPFlag("model", flags.Lookup("model"))
	_ = a.v.BindPFlag("library.path", flags.Lookup("library"))
	_ = a.v.BindPFlag("library.backend", flags.Lookup("library-backend"))

	root.AddCommand(
		a.replCmd(),
		a.refineCmd(),
		a.runCmd(),
		a.libraryCmd(),
		a.envCmd(),
	)
	return root
}

func (a *app) setup() error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) teardown() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// completer returns the gateway for LLM calls, with an in-progress indicator
// on the error stream when interactive is set.
func (a *app) completer(interactive bool) gateway.Completer {
	if a.gw != nil {
		return a.gw
	}
	var progress gateway.ProgressFunc
	if interactive {
		progress = func(task string, done bool) {
			if !done {
				fmt.Fprintf(a.errOut, "… %s\n", task)
			}
		}
	}
	return factory.BuildGateway(a.cfg, a.logger, progress)
}

func (a *app) newSession(ctx context.Context) (*session.Session, error) {
	return factory.BuildSession(ctx, a.cfg, a.completer(true), a.logger)
}
