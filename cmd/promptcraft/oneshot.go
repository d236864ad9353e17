package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/promptcraft/internal/output"
	"github.com/ChamsBouzaiene/promptcraft/internal/prompts"
	"github.com/ChamsBouzaiene/promptcraft/internal/refine"
)

func (a *app) refineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refine <prompt>",
		Short: "Refine a raw prompt and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.Join(args, " ")
			if strings.TrimSpace(raw) == "" {
				return errors.New("prompt is empty")
			}
			r := refine.New(a.completer(false), nil, a.logger)
			res := r.Refine(cmd.Context(), raw)
			fmt.Fprintln(a.out, res.String())
			if !res.Failed() && r.NeedsMoreInfo(res.Text) {
				fmt.Fprintln(a.errOut, "The model asked for more details; try 'promptcraft repl' and the 'form' command.")
			}
			return nil
		},
	}
}

func (a *app) runCmd() *cobra.Command {
	var vars []string
	cmd := &cobra.Command{
		Use:   "run <template-or-file>",
		Short: "Fill a {{variable}} template and print the model's output",
		Long: `Fill a {{variable}} template and print the model's output.
The argument is read as a file when such a file exists, otherwise it is the
template text itself.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			template, err := readTemplate(args[0])
			if err != nil {
				return err
			}
			inputs, err := parseAssignments(vars)
			if err != nil {
				return err
			}
			for _, name := range prompts.UniqueVariables(template) {
				if _, ok := inputs[name]; !ok {
					a.logger.Warn("variable not set", zap.String("variable", name))
				}
			}

			g := output.NewGenerator(a.completer(false), a.logger)
			res := g.Generate(cmd.Context(), template, inputs)
			fmt.Fprintln(a.out, res.String())
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&vars, "var", nil, "variable assignment name=value (repeatable)")
	return cmd
}

func readTemplate(arg string) (string, error) {
	info, err := os.Stat(arg)
	if err != nil || info.IsDir() {
		return arg, nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", arg, err)
	}
	return string(data), nil
}

func parseAssignments(pairs []string) (map[string]string, error) {
	inputs := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid --var %q, expected name=value", p)
		}
		inputs[strings.TrimSpace(name)] = value
	}
	return inputs, nil
}
