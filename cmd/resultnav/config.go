package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/v0xg/resultnav/internal/settings"
)

// settingKey expands short aliases
func settingKey(k string) string {
	if k == "enabled" {
		return settings.KeyEnabled
	}
	return k
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and change persisted settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get [key]",
			Short: "Print one setting, or all of them",
			Args:  cobra.MaximumNArgs(1),
			RunE: withStore(func(cmd *cobra.Command, store *settings.Store, args []string) error {
				ctx := cmd.Context()
				out := cmd.OutOrStdout()
				if len(args) == 1 {
					key := settingKey(args[0])
					v, err := store.Get(ctx, key)
					if errors.Is(err, settings.ErrNotFound) && key == settings.KeyEnabled {
						enabled, _ := store.Enabled(ctx)
						fmt.Fprintf(out, "%t (default)\n", enabled)
						return nil
					}
					if err != nil {
						return err
					}
					fmt.Fprintln(out, v)
					return nil
				}
				all, err := store.All(ctx)
				if err != nil {
					return err
				}
				keys := make([]string, 0, len(all))
				for k := range all {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(out, "%s=%s\n", k, all[k])
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Store a setting; running navigators pick it up",
			Args:  cobra.ExactArgs(2),
			RunE: withStore(func(cmd *cobra.Command, store *settings.Store, args []string) error {
				key := settingKey(args[0])
				if key == settings.KeyEnabled {
					if _, err := strconv.ParseBool(args[1]); err != nil {
						return fmt.Errorf("%s must be a boolean: %w", args[0], err)
					}
				}
				return store.Set(cmd.Context(), key, args[1])
			}),
		},
		&cobra.Command{
			Use:   "unset <key>",
			Short: "Remove a setting",
			Args:  cobra.ExactArgs(1),
			RunE: withStore(func(cmd *cobra.Command, store *settings.Store, args []string) error {
				return store.Delete(cmd.Context(), settingKey(args[0]))
			}),
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Remove every setting",
			Args:  cobra.NoArgs,
			RunE: withStore(func(cmd *cobra.Command, store *settings.Store, args []string) error {
				return store.Clear(cmd.Context())
			}),
		},
	)
	return cmd
}

func withStore(fn func(*cobra.Command, *settings.Store, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}
		store, err := openStore(opts, newLogger())
		if err != nil {
			return err
		}
		defer store.Close()
		return fn(cmd, store, args)
	}
}
