package mitm

import (
	"strconv"
	"sync"
)

// TabKey is an opaque, process-wide scope identifier for a tab. The zero value
// is Global: the request or command could not be tied to a tab.
type TabKey uint64

// Global is the key used for unscoped registrations and unresolved requests.
const Global TabKey = 0

func (k TabKey) String() string {
	if k == Global {
		return "global"
	}
	return "tab:" + strconv.FormatUint(uint64(k), 10)
}

// Resolver assigns tab keys lazily and caches them in a side table keyed by
// the host's tab identity.
type Resolver struct {
	mu      sync.Mutex
	last    TabKey
	keys    map[TabID]TabKey
	locator TabLocator
}

func NewResolver(locator TabLocator) *Resolver {
	return &Resolver{
		keys:    make(map[TabID]TabKey),
		locator: locator,
	}
}

// KeyFromTab returns the key cached for tab, allocating the next one on first use.
func (r *Resolver) KeyFromTab(tab TabID) TabKey {
	r.mu.Lock()
	defer r.mu.Unlock()
	if key, ok := r.keys[tab]; ok {
		return key
	}
	r.last++
	r.keys[tab] = r.last
	return r.last
}

// KeyFromRequest resolves the tab owning req. Requests that do not come from a
// top-level tab window resolve to Global.
func (r *Resolver) KeyFromRequest(req Request) TabKey {
	if r.locator == nil || req == nil {
		return Global
	}
	window, ok := r.locator.WindowForRequest(req)
	if !ok {
		return Global
	}
	return r.keyFromWindow(window)
}

// KeyFromContext resolves the tab of the context's active window.
func (r *Resolver) KeyFromContext(ctx CommandContext) TabKey {
	if r.locator == nil || ctx == nil {
		return Global
	}
	window, ok := ctx.ActiveWindow()
	if !ok {
		return Global
	}
	return r.keyFromWindow(window)
}

func (r *Resolver) keyFromWindow(window WindowID) TabKey {
	tab, ok := r.locator.TabForWindow(window)
	if !ok {
		return Global
	}
	return r.KeyFromTab(tab)
}

// Lookup returns the key already assigned to tab without allocating one.
func (r *Resolver) Lookup(tab TabID) (TabKey, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.keys[tab]
	return key, ok
}

// Forget drops the cached key of a closed tab. The key itself is never handed
// out again.
func (r *Resolver) Forget(tab TabID) (TabKey, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.keys[tab]
	if ok {
		delete(r.keys, tab)
	}
	return key, ok
}
