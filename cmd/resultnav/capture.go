package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/v0xg/resultnav/internal/executor"
	"github.com/v0xg/resultnav/internal/gifgen"
	"github.com/v0xg/resultnav/internal/navigator"
	"github.com/v0xg/resultnav/internal/overlay"
	"github.com/v0xg/resultnav/internal/settings"
)

func newCaptureCmd() *cobra.Command {
	var (
		output   string
		steps    int
		keys     string
		fps      int
		delay    int
		maxWidth uint
		noBox    bool
	)
	cmd := &cobra.Command{
		Use:   "capture <url>",
		Short: "Record keyboard navigation of a results page as a GIF",
		Long: `capture opens the page headless, replays a key script through the
navigator and writes one GIF frame sequence per selection.

Example:
  resultnav capture "https://www.google.com/search?q=golang" -o nav.gif --keys "down*4,up"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := args[0]
			opts, err := loadOptions(cmd)
			if err != nil {
				return err
			}
			log := newLogger()
			ctx := cmd.Context()

			if keys == "" {
				keys = "down*" + strconv.Itoa(max(steps, 1))
			}
			actions, err := executor.ParseActions(keys)
			if err != nil {
				return err
			}

			fmt.Printf("→ Opening %s... ", url)
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
			nav := navigator.New(page, page, settings.Fixed(true), navOpts)
			if err := nav.Attach(ctx); err != nil {
				return fmt.Errorf("attach failed: %w", err)
			}
			defer nav.Detach()

			fmt.Printf("→ Discovering results... ")
			nav.Reconcile(ctx)
			n := len(nav.Candidates())
			if n == 0 {
				fmt.Println("failed")
				return fmt.Errorf("no result links on %s", url)
			}
			fmt.Printf("done (found %d links)\n", n)

			fmt.Println("→ Recording...")
			rec, err := executor.Execute(ctx, nav, page, page, actions, executor.Options{
				FPS:       fps,
				BaseDelay: time.Duration(delay) * time.Millisecond,
				Logger:    log,
			})
			if err != nil {
				return fmt.Errorf("recording failed: %w", err)
			}

			frames := rec.Frames
			if !noBox {
				fmt.Printf("→ Applying selection overlay... ")
				frames, err = overlay.Apply(rec.Frames, rec.Boxes, overlay.DefaultStyle())
				if err != nil {
					fmt.Println("failed")
					return fmt.Errorf("overlay failed: %w", err)
				}
				fmt.Println("done")
			}

			fmt.Printf("→ Generating GIF (%d frames)... ", len(frames))
			size, err := gifgen.Write(output, frames, gifgen.Options{
				FPS:      fps,
				MaxWidth: maxWidth,
				HoldLast: fps,
			})
			if err != nil {
				fmt.Println("failed")
				return fmt.Errorf("GIF generation failed: %w", err)
			}
			fmt.Println("done")

			fmt.Printf("✓ Saved to %s (%.1f MB)\n", output, float64(size)/(1024*1024))
			return nil
		},
	}
	browserFlags(cmd, true)
	cmd.Flags().StringVarP(&output, "output", "o", "resultnav.gif", "Output filename")
	cmd.Flags().IntVar(&steps, "steps", 5, "Number of ArrowDown presses when --keys is not set")
	cmd.Flags().StringVar(&keys, "keys", "", `Key script, e.g. "down*3,up,ctrl+space"`)
	cmd.Flags().IntVar(&fps, "fps", 10, "Frames per second")
	cmd.Flags().IntVar(&delay, "delay", 400, "Settle time after each key (ms)")
	cmd.Flags().UintVar(&maxWidth, "max-width", 800, "Maximum GIF width")
	cmd.Flags().BoolVar(&noBox, "no-box", false, "Disable the selection overlay")
	return cmd
}
