package crawler

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ysmood/gson"

	"github.com/v0xg/resultnav/internal/navigator"
)

// errGone reports a node id the page no longer resolves
var errGone = errors.New("node is no longer attached")

// unmarshal re-decodes an eval result into a typed value
func unmarshal(v gson.JSON, out interface{}) error {
	b, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func decodeNodes(v gson.JSON) ([]navigator.Node, error) {
	if v.Nil() {
		return nil, nil
	}
	var nodes []navigator.Node
	if err := unmarshal(v, &nodes); err != nil {
		return nil, fmt.Errorf("decoding scan result: %w", err)
	}
	return nodes, nil
}

func decodeRect(v gson.JSON) (navigator.Rect, bool, error) {
	if !v.Get("ok").Bool() {
		return navigator.Rect{}, false, nil
	}
	var r navigator.Rect
	if err := unmarshal(v, &r); err != nil {
		return navigator.Rect{}, false, fmt.Errorf("decoding rect: %w", err)
	}
	return r, true, nil
}

func decodeViewport(v gson.JSON) (navigator.Viewport, error) {
	var vp navigator.Viewport
	if err := unmarshal(v, &vp); err != nil {
		return navigator.Viewport{}, fmt.Errorf("decoding viewport: %w", err)
	}
	return vp, nil
}
