package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ChamsBouzaiene/promptcraft/internal/factory"
	"github.com/ChamsBouzaiene/promptcraft/internal/library"
)

func (a *app) libraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Inspect the saved prompt library",
	}

	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List saved prompts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := factory.OpenLibrary(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer lib.Close()

			entries := lib.Entries()
			if asJSON {
				data, err := json.MarshalIndent(entries, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal library: %w", err)
				}
				fmt.Fprintln(a.out, string(data))
				return nil
			}
			if len(entries) == 0 {
				fmt.Fprintln(a.out, "The library is empty.")
				return nil
			}
			for i := len(entries) - 1; i >= 0; i-- {
				printEntry(a.out, i, entries[i])
			}
			return nil
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON in saved order")

	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search saved prompts by title, text and tags",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := factory.OpenLibrary(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer lib.Close()

			hits, err := lib.Search(strings.Join(args, " "))
			if err != nil {
				return err
			}
			if len(hits) == 0 {
				fmt.Fprintln(a.out, "No matches.")
				return nil
			}
			for _, i := range hits {
				e, err := lib.Get(i)
				if err != nil {
					continue
				}
				printEntry(a.out, i, e)
			}
			return nil
		},
	}

	cmd.AddCommand(list, search)
	return cmd
}

// printEntry shows entry i using its 1-based library number.
func printEntry(w io.Writer, i int, e library.Entry) {
	fmt.Fprintf(w, "[%d] %s\n%s\nTags: %s\n\n", i+1, e.Title, e.Prompt, strings.Join(e.Tags, ", "))
}
