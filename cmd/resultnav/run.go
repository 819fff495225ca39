package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/v0xg/resultnav/internal/navigator"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <url>",
		Short: "Open a results page and navigate it with the keyboard",
		Args:  cobra.ExactArgs(1),
		RunE:  runNavigator,
	}
	browserFlags(cmd, false)
	return cmd
}

func runNavigator(cmd *cobra.Command, args []string) error {
	url := args[0]
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	log := newLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(opts, log)
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Printf("→ Opening %s with %s... ", url, opts.Engine)
	page, closePage, err := openPage(ctx, opts, url, log)
	if err != nil {
		fmt.Println("failed")
		return fmt.Errorf("open failed: %w", err)
	}
	defer closePage()
	fmt.Println("done")

	navOpts, err := opts.Navigator()
	if err != nil {
		return err
	}
	navOpts.Logger = log
	navOpts.OnSelect = func(index int, c navigator.Candidate) {
		log.Info("selected", "index", index, "url", c.URL)
	}

	nav := navigator.New(page, page, store, navOpts)
	if err := nav.Attach(ctx); err != nil {
		return fmt.Errorf("attach failed: %w", err)
	}
	fmt.Println("✓ Navigator attached (↑/↓ move, Enter opens, Ctrl+Space opens in background; Ctrl+C quits)")

	<-ctx.Done()
	fmt.Printf("→ Detaching... ")
	nav.Detach()
	fmt.Println("done")
	return nil
}
