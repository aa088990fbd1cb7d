package mitm

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// Registry holds the global modifier set and one modifier set per tab key.
type Registry struct {
	mu     sync.RWMutex
	global ModifierSet
	scopes map[TabKey]*ModifierSet
}

func NewRegistry() *Registry {
	return &Registry{
		scopes: make(map[TabKey]*ModifierSet),
	}
}

// Add registers m for key, or globally when key is Global. Registering the
// same modifier twice in one scope is a no-op.
func (r *Registry) Add(m *Modifier, key TabKey) {
	if m == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if key == Global {
		r.global.Add(m)
		return
	}
	set, ok := r.scopes[key]
	if !ok {
		set = &ModifierSet{}
		r.scopes[key] = set
	}
	set.Add(m)
}

// Remove unregisters m from the scope of key. Missing scopes and modifiers are
// ignored.
func (r *Registry) Remove(m *Modifier, key TabKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if key == Global {
		r.global.Remove(m)
		return
	}
	set, ok := r.scopes[key]
	if !ok {
		return
	}
	set.Remove(m)
	if set.Len() == 0 {
		delete(r.scopes, key)
	}
}

// Active returns the modifiers to apply for key: the global set in insertion
// order followed by the tab set in insertion order. A modifier present in both
// only appears once, at its global position.
func (r *Registry) Active(key TabKey) []*Modifier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	active := r.global.Items()
	if key == Global {
		return active
	}
	set, ok := r.scopes[key]
	if !ok {
		return active
	}
	for _, m := range set.items {
		if !r.global.Contains(m) {
			active = append(active, m)
		}
	}
	return active
}

// DropScope deletes every registration of key. It is used when a tab closes.
func (r *Registry) DropScope(key TabKey) bool {
	if key == Global {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.scopes[key]
	delete(r.scopes, key)
	return ok
}

// Scopes returns the number of tab keys with at least one registration.
func (r *Registry) Scopes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.scopes)
}

// Registration is one modifier registered in one scope.
type Registration struct {
	Scope    TabKey `json:"scope" yaml:"scope"`
	Modifier string `json:"modifier" yaml:"modifier"`
	Position int    `json:"position" yaml:"position"`
}

// Registrations returns a snapshot of every registration, global first and
// then tabs by ascending key.
func (r *Registry) Registrations() []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Registration
	for i, m := range r.global.items {
		out = append(out, Registration{Scope: Global, Modifier: m.Name, Position: i})
	}
	keys := make([]TabKey, 0, len(r.scopes))
	for key := range r.scopes {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, key := range keys {
		for i, m := range r.scopes[key].items {
			out = append(out, Registration{Scope: key, Modifier: m.Name, Position: i})
		}
	}
	return out
}

func (r Registration) String() string {
	return fmt.Sprintf("%s %s", r.Scope, r.Modifier)
}

func (r Registration) Pretty() string {
	return fmt.Sprintf("Scope: %s | Modifier: %s | Position: %d", r.Scope, r.Modifier, r.Position)
}

func (r Registration) TableHeaders() []string {
	return []string{"Scope", "Modifier", "Position"}
}

func (r Registration) TableRow() []string {
	return []string{r.Scope.String(), r.Modifier, strconv.Itoa(r.Position)}
}
