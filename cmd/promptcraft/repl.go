package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/promptcraft/internal/history"
	"github.com/ChamsBouzaiene/promptcraft/internal/prompts"
	"github.com/ChamsBouzaiene/promptcraft/internal/session"
)

const replHelp = `Commands:
  refine <text>          refine a raw prompt into a new version
  form [output]          answer Objective/Audience/Tone when the model asks for details
  show                   show the current version
  vars                   list the variables of the current prompt
  set <name>=<value>     set a variable for the next generation
  generate               run the current prompt with the variables set
  render                 show the cached output if the variables are unchanged
  save [title] [| tags]  save the current prompt to the library
  library                list saved prompts, newest first
  search <query>         search saved prompts
  load <n>               load saved prompt n as a new version
  history                list versions, newest first
  restore <n>            make version n current
  diff <a> <b>           compare the refined text of versions a and b
  help                   show this help
  quit                   leave`

func (a *app) replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive prompt-authoring session (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runREPL(cmd.Context())
		},
	}
}

func (a *app) runREPL(ctx context.Context) error {
	s, err := a.newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	r := &repl{
		s:       s,
		scanner: bufio.NewScanner(a.in),
		out:     a.out,
		logger:  a.logger,
		pending: map[string]string{},
	}
	r.scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	fmt.Fprintf(a.out, "PromptCraft session %s (%d saved prompts). Type 'help' for commands.\n", s.ID, s.Library().Len())
	r.run(ctx)
	return nil
}

type repl struct {
	s       *session.Session
	scanner *bufio.Scanner
	out     io.Writer
	logger  *zap.Logger

	// lastRaw is the raw prompt most recently entered.
	lastRaw string
	// pending holds variable values set since the current version was selected.
	pending        map[string]string
	pendingVersion int
}

func (r *repl) run(ctx context.Context) {
	for {
		fmt.Fprint(r.out, "promptcraft> ")
		line, ok := r.readLine()
		if !ok {
			fmt.Fprintln(r.out)
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)
		if cmd == "quit" || cmd == "exit" {
			return
		}
		if err := r.dispatch(ctx, cmd, rest); err != nil {
			r.logger.Debug("command failed", zap.String("command", cmd), zap.Error(err))
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
	}
}

func (r *repl) readLine() (string, bool) {
	if !r.scanner.Scan() {
		return "", false
	}
	return r.scanner.Text(), true
}

func (r *repl) dispatch(ctx context.Context, cmd, rest string) error {
	switch cmd {
	case "help", "?":
		fmt.Fprintln(r.out, replHelp)
	case "refine":
		r.refine(ctx, rest)
	case "form":
		return r.form(ctx, rest == "output")
	case "show":
		return r.show()
	case "vars":
		r.vars()
	case "set":
		return r.set(rest)
	case "generate":
		r.render(ctx, true)
	case "render":
		r.render(ctx, false)
	case "save":
		return r.save(ctx, rest)
	case "library":
		r.library()
	case "search":
		return r.search(rest)
	case "load":
		return r.load(rest)
	case "history":
		r.history()
	case "restore":
		return r.restore(rest)
	case "diff":
		return r.diff(rest)
	default:
		return fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
	return nil
}

func (r *repl) refine(ctx context.Context, raw string) {
	if strings.TrimSpace(raw) == "" {
		fmt.Fprintln(r.out, "usage: refine <text>")
		return
	}
	r.lastRaw = raw
	idx, res, _ := r.s.Refine(ctx, raw)
	fmt.Fprintf(r.out, "Version %d:\n%s\n", idx+1, res.String())
	if r.s.RefinedNeedsMoreInfo() {
		fmt.Fprintln(r.out, "The model needs more details. Run 'form' to answer a few questions.")
	}
}

func (r *repl) form(ctx context.Context, forOutput bool) error {
	answers := prompts.StructuredAnswers{}
	for _, f := range prompts.StructuredFields() {
		fmt.Fprintf(r.out, "%s (%s): ", f.Label, f.Placeholder)
		line, ok := r.readLine()
		if !ok {
			return io.ErrUnexpectedEOF
		}
		answers[f.Label] = strings.TrimSpace(line)
	}

	if forOutput {
		out, fired := r.s.GenerateStructured(ctx, answers)
		if !fired {
			fmt.Fprintln(r.out, "All three fields are required; nothing was generated.")
			return nil
		}
		fmt.Fprintf(r.out, "Model output:\n%s\n", out)
		return nil
	}

	idx, res, fired := r.s.RefineStructured(ctx, r.lastRaw, answers)
	if !fired {
		fmt.Fprintln(r.out, "All three fields are required; nothing was refined.")
		return nil
	}
	fmt.Fprintf(r.out, "Version %d:\n%s\n", idx+1, res.String())
	return nil
}

func (r *repl) show() error {
	v, err := r.s.Current()
	if err != nil {
		return err
	}
	idx, _ := r.s.History().CurrentIndex()
	label, _ := r.s.History().Label(idx)
	fmt.Fprintf(r.out, "%s\nRaw: %s\n---\nRefined: %s\n", label, v.Raw, v.Refined)
	return nil
}

// inputs returns the values to render the current version with: values set
// since it was selected, else the ones used by the last generation.
func (r *repl) inputs() map[string]string {
	idx, _ := r.s.History().CurrentIndex()
	if idx != r.pendingVersion {
		r.pending = map[string]string{}
		r.pendingVersion = idx
	}
	last := r.s.LastInputs()
	inputs := map[string]string{}
	for _, name := range r.s.Variables() {
		if v, ok := r.pending[name]; ok {
			inputs[name] = v
		} else {
			inputs[name] = last[name]
		}
	}
	return inputs
}

func (r *repl) vars() {
	names := r.s.Variables()
	if len(names) == 0 {
		fmt.Fprintln(r.out, "No variables.")
		return
	}
	inputs := r.inputs()
	for _, name := range names {
		fmt.Fprintf(r.out, "  %s = %q\n", name, inputs[name])
	}
}

func (r *repl) set(arg string) error {
	name, value, ok := strings.Cut(arg, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return errors.New("usage: set <name>=<value>")
	}
	r.inputs()
	r.pending[name] = strings.TrimSpace(value)
	return nil
}

func (r *repl) render(ctx context.Context, generate bool) {
	out, needsMore := r.s.Render(ctx, r.inputs(), generate)
	if out == "" {
		if !generate {
			fmt.Fprintln(r.out, "No cached output for these variables. Run 'generate'.")
		}
		return
	}
	fmt.Fprintf(r.out, "Model output:\n%s\n", out)
	if needsMore {
		fmt.Fprintln(r.out, "More information is required. Run 'form output' to answer a few questions.")
	}
}

func (r *repl) save(ctx context.Context, arg string) error {
	title, tags, _ := strings.Cut(arg, "|")
	entry, err := r.s.SaveToLibrary(ctx, strings.TrimSpace(title), tags)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Saved %q to the library.\n", entry.Title)
	return nil
}

func (r *repl) library() {
	entries := r.s.Library().Entries()
	if len(entries) == 0 {
		fmt.Fprintln(r.out, "The library is empty.")
		return
	}
	for i := len(entries) - 1; i >= 0; i-- {
		printEntry(r.out, i, entries[i])
	}
}

func (r *repl) search(query string) error {
	if query == "" {
		return errors.New("usage: search <query>")
	}
	hits, err := r.s.Library().Search(query)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Fprintln(r.out, "No matches.")
		return nil
	}
	for _, i := range hits {
		e, err := r.s.Library().Get(i)
		if err != nil {
			continue
		}
		printEntry(r.out, i, e)
	}
	return nil
}

func (r *repl) load(arg string) error {
	n, err := parseNumber(arg)
	if err != nil {
		return err
	}
	idx, err := r.s.LoadIntoRefiner(n - 1)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Loaded as version %d.\n", idx+1)
	return nil
}

func (r *repl) history() {
	h := r.s.History()
	if h.Len() == 0 {
		fmt.Fprintln(r.out, "No versions yet.")
		return
	}
	current, _ := h.CurrentIndex()
	versions := h.Versions()
	for i := len(versions) - 1; i >= 0; i-- {
		marker := " "
		if i == current {
			marker = "*"
		}
		label, _ := h.Label(i)
		fmt.Fprintf(r.out, "%s %s\n    Raw: %s\n    Refined: %s\n", marker, label, oneLine(versions[i].Raw), oneLine(versions[i].Refined))
	}
}

func (r *repl) restore(arg string) error {
	n, err := parseNumber(arg)
	if err != nil {
		return err
	}
	if err := r.s.Restore(n - 1); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Version %d is now current.\n", n)
	return nil
}

func (r *repl) diff(arg string) error {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		return errors.New("usage: diff <a> <b>")
	}
	from, err := parseNumber(fields[0])
	if err != nil {
		return err
	}
	to, err := parseNumber(fields[1])
	if err != nil {
		return err
	}
	diffs, err := r.s.History().Diff(from-1, to-1)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, history.FormatDiff(diffs))
	return nil
}

func parseNumber(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, fmt.Errorf("expected a number, got %q", arg)
	}
	return n, nil
}

func oneLine(s string) string {
	runes := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(runes) > 100 {
		return string(runes[:97]) + "..."
	}
	return string(runes)
}
