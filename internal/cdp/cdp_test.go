package cdp

import (
	"testing"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/v0xg/resultnav/internal/bridge"
)

func TestBindingPayload(t *testing.T) {
	tests := []struct {
		name string
		ev   interface{}
		want string
		ok   bool
	}{
		{"ours", &runtime.EventBindingCalled{Name: bridge.Binding, Payload: `{"type":"mutation"}`}, `{"type":"mutation"}`, true},
		{"other binding", &runtime.EventBindingCalled{Name: "somethingElse", Payload: "x"}, "", false},
		{"other event", &runtime.EventConsoleAPICalled{}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := bindingPayload(tt.ev)
			if got != tt.want || ok != tt.ok {
				t.Errorf("expected (%q, %v), got (%q, %v)", tt.want, tt.ok, got, ok)
			}
		})
	}
}

func TestAllocatorOptions(t *testing.T) {
	base := len(chromedp.DefaultExecAllocatorOptions)
	got := allocatorOptions(Options{Width: 800, Height: 600})
	if len(got) != base+2 {
		t.Errorf("expected %d options, got %d", base+2, len(got))
	}
	got = allocatorOptions(Options{ChromePath: "/usr/bin/chromium", ProfileDir: "/tmp/profile"})
	if len(got) != base+4 {
		t.Errorf("expected %d options with path and profile, got %d", base+4, len(got))
	}
}
