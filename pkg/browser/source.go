package browser

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/pyneda/proxytag/pkg/mitm"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

// TabSource turns the pages of a rod browser into a request event source. A
// window is a CDP frame; a frame is a tab when it is the main frame of a
// watched page, which Chrome gives the same ID as the page target.
type TabSource struct {
	browser *rod.Browser
	logger  zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      conc.WaitGroup

	mu       sync.RWMutex
	pages    map[proto.TargetTargetID]*rod.Page
	active   proto.TargetTargetID
	handlers []func(mitm.Request)
	closers  []func(mitm.TabID)
}

var (
	_ mitm.EventSource    = (*TabSource)(nil)
	_ mitm.TabLocator     = (*TabSource)(nil)
	_ mitm.CommandContext = (*TabSource)(nil)
)

func NewTabSource(browser *rod.Browser) *TabSource {
	ctx, cancel := context.WithCancel(context.Background())
	return &TabSource{
		browser: browser,
		logger:  log.With().Str("component", "tab_source").Logger(),
		ctx:     ctx,
		cancel:  cancel,
		pages:   make(map[proto.TargetTargetID]*rod.Page),
	}
}

// Start listens for destroyed targets so closed tabs can be reported.
func (s *TabSource) Start() error {
	wait := s.browser.Context(s.ctx).EachEvent(func(e *proto.TargetTargetDestroyed) {
		s.targetDestroyed(e.TargetID)
	})
	if err := (proto.TargetSetDiscoverTargets{Discover: true}).Call(s.browser); err != nil {
		s.cancel()
		return fmt.Errorf("failed to enable target discovery: %w", err)
	}
	s.wg.Go(wait)
	return nil
}

// Watch pauses every request of page at the request stage and dispatches it to
// the subscribed handlers before letting it continue.
func (s *TabSource) Watch(page *rod.Page) error {
	s.mu.Lock()
	if _, ok := s.pages[page.TargetID]; ok {
		s.mu.Unlock()
		return nil
	}
	s.pages[page.TargetID] = page
	s.mu.Unlock()

	p := page.Context(s.ctx)
	wait := p.EachEvent(func(e *proto.FetchRequestPaused) {
		s.handlePaused(p, e)
	})
	enable := proto.FetchEnable{
		Patterns: []*proto.FetchRequestPattern{
			{URLPattern: "*", RequestStage: proto.FetchRequestStageRequest},
		},
	}
	if err := enable.Call(p); err != nil {
		s.forget(page.TargetID)
		return fmt.Errorf("failed to enable request interception: %w", err)
	}
	s.wg.Go(wait)
	s.logger.Debug().Str("tab", string(page.TargetID)).Msg("Watching tab")
	return nil
}

func (s *TabSource) handlePaused(page *rod.Page, e *proto.FetchRequestPaused) {
	req := NewPausedRequest(e)
	if isHTTP(req.URL()) {
		s.Emit(req)
	} else {
		s.logger.Debug().Str("url", req.URL()).Msg("Skipping non-HTTP request")
	}
	if err := req.ContinueParams().Call(page); err != nil {
		s.logger.Error().Err(err).Str("url", req.URL()).Msg("Error continuing paused request")
	}
}

// Emit hands req to every subscribed handler, in subscription order.
func (s *TabSource) Emit(req mitm.Request) {
	s.mu.RLock()
	handlers := append([]func(mitm.Request){}, s.handlers...)
	s.mu.RUnlock()
	for _, handler := range handlers {
		handler(req)
	}
}

func (s *TabSource) Subscribe(handler func(mitm.Request)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

func (s *TabSource) OnTabClosed(handler func(mitm.TabID)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, handler)
}

func (s *TabSource) WindowForRequest(req mitm.Request) (mitm.WindowID, bool) {
	paused, ok := req.(*PausedRequest)
	if !ok || paused.FrameID() == "" {
		return "", false
	}
	return mitm.WindowID(paused.FrameID()), true
}

func (s *TabSource) TabForWindow(window mitm.WindowID) (mitm.TabID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.pages[proto.TargetTargetID(window)]; !ok {
		return "", false
	}
	return mitm.TabID(window), true
}

// ActiveWindow is the main frame of the tab opened or activated last.
func (s *TabSource) ActiveWindow() (mitm.WindowID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == "" {
		return "", false
	}
	return mitm.WindowID(s.active), true
}

// Activate makes the tab the target of "tab" scoped commands.
func (s *TabSource) Activate(id mitm.TabID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pages[proto.TargetTargetID(id)]; !ok {
		return false
	}
	s.active = proto.TargetTargetID(id)
	return true
}

// Page returns the watched page of a tab.
func (s *TabSource) Page(id mitm.TabID) (*rod.Page, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	page, ok := s.pages[proto.TargetTargetID(id)]
	return page, ok
}

// Tabs returns the watched tab IDs.
func (s *TabSource) Tabs() []mitm.TabID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]mitm.TabID, 0, len(s.pages))
	for id := range s.pages {
		ids = append(ids, mitm.TabID(id))
	}
	return ids
}

func (s *TabSource) targetDestroyed(id proto.TargetTargetID) {
	if !s.forget(id) {
		return
	}
	s.logger.Debug().Str("tab", string(id)).Msg("Tab closed")
	s.mu.RLock()
	closers := append([]func(mitm.TabID){}, s.closers...)
	s.mu.RUnlock()
	for _, closer := range closers {
		closer(mitm.TabID(id))
	}
}

func (s *TabSource) forget(id proto.TargetTargetID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pages[id]; !ok {
		return false
	}
	delete(s.pages, id)
	if s.active == id {
		s.active = ""
	}
	return true
}

// Close stops every event loop and waits for them to return.
func (s *TabSource) Close() {
	s.cancel()
	s.wg.Wait()
}

func isHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
