package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/v0xg/resultnav/internal/navigator"
	"github.com/v0xg/resultnav/internal/settings"
	"github.com/v0xg/resultnav/internal/static"
)

func newScanCmd() *cobra.Command {
	var (
		pageURL string
		sel     int
		dump    bool
	)
	cmd := &cobra.Command{
		Use:   "scan <file.html>",
		Short: "List the result links found in a saved results page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOptions(cmd)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return scan(cmd, f, pageURL, sel, dump, opts.Navigator)
		},
	}
	cmd.Flags().StringVar(&pageURL, "url", "https://www.google.com/search", "Address the page was saved from")
	cmd.Flags().IntVar(&sel, "select", navigator.Unset, "Select the candidate at this index")
	cmd.Flags().BoolVar(&dump, "dump", false, "Print the page HTML with the indicator applied")
	return cmd
}

func scan(cmd *cobra.Command, r io.Reader, pageURL string, sel int, dump bool, navOptions func() (navigator.Options, error)) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	doc, err := static.Load(r, pageURL, static.Options{})
	if err != nil {
		return err
	}
	navOpts, err := navOptions()
	if err != nil {
		return err
	}
	navOpts.Logger = newLogger()

	nav := navigator.New(doc, doc, settings.Fixed(true), navOpts)
	if err := nav.Attach(ctx); err != nil {
		return err
	}
	defer nav.Detach()
	nav.Reconcile(ctx)

	cands := nav.Candidates()
	if len(cands) == 0 {
		fmt.Fprintln(out, "no result links found")
		return nil
	}
	if sel != navigator.Unset {
		if err := nav.Select(ctx, sel); err != nil {
			return fmt.Errorf("--select: %w", err)
		}
	}

	cursor := nav.Cursor()
	for i, c := range cands {
		mark := " "
		if i == cursor {
			mark = ">"
		}
		fmt.Fprintf(out, "%s %3d  top=%-6.0f left=%-4.0f %s\n", mark, i, c.Top, c.Left, c.URL)
	}

	if dump {
		html, err := doc.HTML()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, html)
	}
	return nil
}
