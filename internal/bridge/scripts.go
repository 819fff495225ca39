// Package bridge holds the page-side scripts shared by the browser backends
// and routes events the page reports back through a CDP binding.
package bridge

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Binding is the name of the page function that forwards events to Go
const Binding = "__resultnavEmit"

// IndicatorClass tags injected markers for external stylesheets
const IndicatorClass = "resultnav-indicator"

// prelude gives every script the shared namespace and an id lookup that
// returns null for nodes the host has removed. Ids carry a per-document
// prefix so a new document never reuses the previous one's ids.
const prelude = `
const ns = window.__resultnav || (window.__resultnav = {
	doc: Math.floor(performance.timeOrigin).toString(36) + Math.random().toString(36).slice(2, 8),
	seq: 0, refs: new Map(), state: {active: false, selected: false}, inputOn: false,
});
const idOf = (el) => {
	if (!el.__resultnavID) {
		el.__resultnavID = ns.doc + '-' + (++ns.seq);
		ns.refs.set(el.__resultnavID, new WeakRef(el));
	}
	return el.__resultnavID;
};
const lookup = (id) => {
	const ref = ns.refs.get(id);
	const el = ref && ref.deref();
	if (!el || !el.isConnected) {
		ns.refs.delete(id);
		return null;
	}
	return el;
};
`

// fn wraps body in an arrow function with the prelude in scope
func fn(params, body string) string {
	return "(" + params + ") => {" + prelude + body + "}"
}

// InstallFunc registers the page listeners. Running it twice is a no-op.
var InstallFunc = fn("", `
	if (ns.installed) return false;
	ns.installed = true;

	const emit = (payload) => {
		const send = window['` + Binding + `'];
		if (typeof send === 'function') send(JSON.stringify(payload));
	};
	const owned = ['ArrowUp', 'ArrowDown', 'Enter', ' ', 'Spacebar'];

	document.addEventListener('keydown', (e) => {
		if (!ns.inputOn || !ns.state.active || !owned.includes(e.key)) return;
		const t = e.target;
		const text = !!t && (t.isContentEditable || t.tagName === 'INPUT' || t.tagName === 'TEXTAREA');
		if (text && !e.ctrlKey && !e.altKey) return;
		const arrow = e.key === 'ArrowUp' || e.key === 'ArrowDown';
		if (!arrow && !ns.state.selected) return;
		e.preventDefault();
		emit({type: 'key', key: {
			key: e.key, ctrl: e.ctrlKey, alt: e.altKey, shift: e.shiftKey, meta: e.metaKey, textTarget: text,
		}});
	}, true);

	const isIndicator = (n) => n && n.nodeType === 1 && n.classList.contains('` + IndicatorClass + `');
	const holdsResults = (n) => n.nodeType === 1 && (n.id === 'search' || n.querySelector('#search') !== null);
	// the results container may be swapped out wholesale, so watch the body
	// and keep records inside the container or replacing it
	const inResults = (r) => {
		const area = document.querySelector('#search');
		if (!area || area.contains(r.target)) return true;
		return r.type === 'childList' && [...r.addedNodes, ...r.removedNodes].some(holdsResults);
	};
	const observe = () => {
		const root = document.body || document.documentElement;
		if (!root) return;
		new MutationObserver((records) => {
			if (!ns.inputOn) return;
			const relevant = records.some((r) => {
				if (isIndicator(r.target) || !inResults(r)) return false;
				if (r.type !== 'childList') return true;
				const nodes = [...r.addedNodes, ...r.removedNodes];
				return nodes.length === 0 || !nodes.every(isIndicator);
			});
			if (relevant) emit({type: 'mutation'});
		}).observe(root, {
			childList: true, subtree: true, attributes: true,
			attributeFilter: ['class', 'hidden', 'href', 'aria-hidden'],
		});
	};

	if (document.readyState === 'loading') {
		document.addEventListener('DOMContentLoaded', () => {
			observe();
			emit({type: 'ready'});
		});
	} else {
		observe();
	}
	document.addEventListener('visibilitychange', () => {
		if (document.visibilityState === 'visible') emit({type: 'visible'});
	});
	window.addEventListener('pageshow', (e) => {
		if (e.persisted) emit({type: 'pageshow'});
	});
	return true;
`)

// Install is InstallFunc as a statement, for scripts evaluated on every new
// document
var Install = "(" + InstallFunc + ")();"

// Scan returns node records for every primary match
var Scan = fn("primary, exclude", `
	let matches = [];
	try { matches = document.querySelectorAll(primary); } catch (e) { return []; }
	const seen = new Set();
	const out = [];
	matches.forEach((el) => {
		if (seen.has(el)) return;
		seen.add(el);
		let excluded = false;
		if (exclude) {
			try { excluded = el.closest(exclude) !== null; } catch (e) {}
		}
		const r = el.getBoundingClientRect();
		out.push({
			id: idOf(el),
			href: typeof el.href === 'string' ? el.href : '',
			laidOut: el.offsetParent !== null || getComputedStyle(el).position === 'fixed',
			width: r.width,
			height: r.height,
			top: r.top,
			left: r.left,
			hasText: (el.innerText || '').trim().length > 0,
			hasImage: el.querySelector('img') !== null,
			excluded: excluded,
		});
	});
	return out;
`)

// Rect measures a node, reporting ok=false when it is gone
var Rect = fn("id", `
	const el = lookup(id);
	if (!el) return {ok: false};
	const r = el.getBoundingClientRect();
	return {ok: true, top: r.top, left: r.left, bottom: r.bottom, right: r.right};
`)

// Viewport reports window size, scroll offset and document height
var Viewport = fn("", `
	const d = document.documentElement;
	return {
		width: window.innerWidth,
		height: window.innerHeight,
		scrollY: window.scrollY,
		documentHeight: Math.max(d.scrollHeight, document.body ? document.body.scrollHeight : 0),
	};
`)

// ScrollTo jumps without smooth scrolling
var ScrollTo = fn("y", `
	window.scrollTo({top: y, left: window.scrollX, behavior: 'instant'});
	return true;
`)

// Mark injects the indicator and lifts the node into its own stacking
// context, remembering the inline values it overrides
var Mark = fn("id", `
	const el = lookup(id);
	if (!el) return false;
	el.querySelectorAll(':scope > .`+IndicatorClass+`').forEach((m) => m.remove());
	const marker = document.createElement('span');
	marker.className = '`+IndicatorClass+`';
	el.insertBefore(marker, el.firstChild);
	if (!el.hasAttribute('data-resultnav-z')) {
		el.setAttribute('data-resultnav-z', el.style.zIndex || '');
		el.setAttribute('data-resultnav-pos', el.style.position || '');
		el.setAttribute('data-resultnav-iso', el.style.isolation || '');
	}
	el.style.zIndex = '2147483000';
	el.style.isolation = 'isolate';
	if (getComputedStyle(el).position === 'static') el.style.position = 'relative';
	return true;
`)

// Unmark removes the indicator and restores the overridden inline values
var Unmark = fn("id", `
	const el = lookup(id);
	if (!el) return false;
	el.querySelectorAll(':scope > .`+IndicatorClass+`').forEach((m) => m.remove());
	if (el.hasAttribute('data-resultnav-z')) {
		el.style.zIndex = el.getAttribute('data-resultnav-z');
		el.style.position = el.getAttribute('data-resultnav-pos');
		el.style.isolation = el.getAttribute('data-resultnav-iso');
		el.removeAttribute('data-resultnav-z');
		el.removeAttribute('data-resultnav-pos');
		el.removeAttribute('data-resultnav-iso');
	}
	return true;
`)

// Marked reports whether the node still carries the indicator
var Marked = fn("id", `
	const el = lookup(id);
	return !!el && el.querySelector(':scope > .`+IndicatorClass+`') !== null;
`)

// Activate clicks the node so page handlers see a real activation
var Activate = fn("id", `
	const el = lookup(id);
	if (!el) return false;
	el.click();
	return true;
`)

// Publish mirrors navigator state for the keydown listener
var Publish = fn("state", `
	ns.state = state;
	return true;
`)

// SetInput turns event forwarding on or off
var SetInput = fn("on", `
	ns.inputOn = on;
	return true;
`)

// Location returns the page address
var Location = fn("", `return window.location.href;`)

// Call renders fn applied to args as a single expression, for drivers that
// evaluate expressions rather than functions
func Call(fn string, args ...any) (string, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return "", fmt.Errorf("encoding argument %d: %w", i, err)
		}
		parts[i] = string(b)
	}
	return "(" + fn + ")(" + strings.Join(parts, ", ") + ")", nil
}
