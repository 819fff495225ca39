package settings

import "context"

// Fixed is an enabled flag that never changes. Used when no store is
// configured, e.g. for offline scans.
type Fixed bool

func (f Fixed) Enabled(ctx context.Context) (bool, error) {
	return bool(f), nil
}

func (f Fixed) WatchEnabled(ctx context.Context, fn func(bool)) (func(), error) {
	return func() {}, nil
}
