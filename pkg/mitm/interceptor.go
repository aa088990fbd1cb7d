package mitm

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Interceptor applies the active modifiers to every request the source
// reports. It subscribes once, when constructed, and never unsubscribes.
type Interceptor struct {
	registry *Registry
	resolver *Resolver
	logger   zerolog.Logger
	onError  func(*ApplyError)

	dispatched atomic.Uint64
	applied    atomic.Uint64
	failed     atomic.Uint64
	dropped    atomic.Uint64
}

// InterceptorOption customises an Interceptor.
type InterceptorOption func(*Interceptor)

// WithLogger replaces the global zerolog logger.
func WithLogger(logger zerolog.Logger) InterceptorOption {
	return func(i *Interceptor) {
		i.logger = logger
	}
}

// WithErrorHandler is called, after logging, for every failed modifier call.
func WithErrorHandler(fn func(*ApplyError)) InterceptorOption {
	return func(i *Interceptor) {
		i.onError = fn
	}
}

func NewInterceptor(source EventSource, registry *Registry, resolver *Resolver, opts ...InterceptorOption) *Interceptor {
	i := &Interceptor{
		registry: registry,
		resolver: resolver,
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = i.logger.With().Str("component", "interceptor").Logger()
	source.Subscribe(i.Dispatch)
	source.OnTabClosed(i.tabClosed)
	return i
}

// Dispatch resolves the tab of req and runs every active modifier on it, global
// ones first. A failing modifier is logged and skipped; the rest still run.
func (i *Interceptor) Dispatch(req Request) {
	i.dispatched.Add(1)
	key := i.resolver.KeyFromRequest(req)
	modifiers := i.registry.Active(key)
	if len(modifiers) == 0 {
		return
	}
	for _, m := range modifiers {
		if err := i.apply(m, req, key); err != nil {
			i.failed.Add(1)
			i.logger.Error().Err(err.Err).Str("modifier", err.Modifier).Str("url", err.URL).Stringer("scope", key).Msg("Modifier failed, continuing with the next one")
			if i.onError != nil {
				i.onError(err)
			}
			continue
		}
		i.applied.Add(1)
	}
	i.logger.Debug().Str("url", req.URL()).Stringer("scope", key).Int("modifiers", len(modifiers)).Msg("Request modified")
}

func (i *Interceptor) apply(m *Modifier, req Request, key TabKey) (applyErr *ApplyError) {
	defer func() {
		if r := recover(); r != nil {
			applyErr = &ApplyError{Modifier: m.String(), URL: req.URL(), Key: key, Err: fmt.Errorf("%w: %v", ErrModifierPanic, r)}
		}
	}()
	if err := m.Apply(req); err != nil {
		return &ApplyError{Modifier: m.String(), URL: req.URL(), Key: key, Err: err}
	}
	return nil
}

func (i *Interceptor) tabClosed(tab TabID) {
	key, ok := i.resolver.Forget(tab)
	if !ok {
		return
	}
	if i.registry.DropScope(key) {
		i.dropped.Add(1)
		i.logger.Debug().Str("tab", string(tab)).Stringer("scope", key).Msg("Dropped modifiers of closed tab")
	}
}

// Stats is a snapshot of the interceptor counters.
type Stats struct {
	Dispatched   uint64 `json:"dispatched" yaml:"dispatched"`
	Applied      uint64 `json:"applied" yaml:"applied"`
	Failed       uint64 `json:"failed" yaml:"failed"`
	DroppedTabs  uint64 `json:"dropped_tabs" yaml:"dropped_tabs"`
	ActiveScopes int    `json:"active_scopes" yaml:"active_scopes"`
}

func (i *Interceptor) Stats() Stats {
	return Stats{
		Dispatched:   i.dispatched.Load(),
		Applied:      i.applied.Load(),
		Failed:       i.failed.Load(),
		DroppedTabs:  i.dropped.Load(),
		ActiveScopes: i.registry.Scopes(),
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("dispatched=%d applied=%d failed=%d dropped_tabs=%d active_scopes=%d", s.Dispatched, s.Applied, s.Failed, s.DroppedTabs, s.ActiveScopes)
}

func (s Stats) Pretty() string {
	return fmt.Sprintf("Dispatched: %d | Applied: %d | Failed: %d | Dropped tabs: %d | Active scopes: %d", s.Dispatched, s.Applied, s.Failed, s.DroppedTabs, s.ActiveScopes)
}

func (s Stats) TableHeaders() []string {
	return []string{"Dispatched", "Applied", "Failed", "Dropped tabs", "Active scopes"}
}

func (s Stats) TableRow() []string {
	return []string{
		strconv.FormatUint(s.Dispatched, 10),
		strconv.FormatUint(s.Applied, 10),
		strconv.FormatUint(s.Failed, 10),
		strconv.FormatUint(s.DroppedTabs, 10),
		strconv.Itoa(s.ActiveScopes),
	}
}
