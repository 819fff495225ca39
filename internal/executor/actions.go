package executor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/v0xg/resultnav/internal/navigator"
)

// Action is one scripted key press, repeated Repeat times
type Action struct {
	Key    navigator.KeyEvent
	Repeat int
}

func (a Action) String() string {
	name := a.Key.Key
	switch name {
	case navigator.KeyArrowDown:
		name = "down"
	case navigator.KeyArrowUp:
		name = "up"
	case navigator.KeyEnter:
		name = "enter"
	case navigator.KeySpace:
		name = "space"
	}
	if a.Key.Ctrl {
		name = "ctrl+" + name
	}
	if a.Repeat > 1 {
		name += "*" + strconv.Itoa(a.Repeat)
	}
	return name
}

var keyNames = map[string]string{
	"down":  navigator.KeyArrowDown,
	"up":    navigator.KeyArrowUp,
	"enter": navigator.KeyEnter,
	"space": navigator.KeySpace,
}

// ParseActions reads a comma separated key script such as
// "down*3,up,ctrl+space"
func ParseActions(script string) ([]Action, error) {
	var actions []Action
	for _, raw := range strings.Split(script, ",") {
		tok := strings.ToLower(strings.TrimSpace(raw))
		if tok == "" {
			continue
		}

		repeat := 1
		if name, n, ok := strings.Cut(tok, "*"); ok {
			r, err := strconv.Atoi(n)
			if err != nil || r < 1 {
				return nil, fmt.Errorf("bad repeat count in %q", raw)
			}
			tok, repeat = name, r
		}

		var ev navigator.KeyEvent
		if rest, ok := strings.CutPrefix(tok, "ctrl+"); ok {
			ev.Ctrl = true
			tok = rest
		}
		key, ok := keyNames[tok]
		if !ok {
			return nil, fmt.Errorf("unknown key %q", raw)
		}
		ev.Key = key
		actions = append(actions, Action{Key: ev, Repeat: repeat})
	}
	if len(actions) == 0 {
		return nil, fmt.Errorf("empty key script")
	}
	return actions, nil
}
