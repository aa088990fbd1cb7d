package browser

import (
	"testing"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/pyneda/proxytag/pkg/mitm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sourceWithTabs builds a TabSource with fake watched pages and no browser.
func sourceWithTabs(ids ...proto.TargetTargetID) *TabSource {
	s := NewTabSource(nil)
	for _, id := range ids {
		s.pages[id] = &rod.Page{TargetID: id}
	}
	return s
}

func TestTabSourceLocatesTopFrames(t *testing.T) {
	s := sourceWithTabs("TAB1", "TAB2")
	resolver := mitm.NewResolver(s)

	main := NewPausedRequest(pausedEvent("https://example.com/", "TAB2", nil))
	iframe := NewPausedRequest(pausedEvent("https://ads.example/", "IFRAME7", nil))
	noFrame := NewPausedRequest(pausedEvent("https://sw.example/", "", nil))

	assert.Equal(t, mitm.TabKey(1), resolver.KeyFromRequest(main))
	assert.Equal(t, mitm.Global, resolver.KeyFromRequest(iframe))
	assert.Equal(t, mitm.Global, resolver.KeyFromRequest(noFrame))
}

func TestTabSourceActiveWindow(t *testing.T) {
	s := sourceWithTabs("TAB1", "TAB2")
	resolver := mitm.NewResolver(s)

	assert.Equal(t, mitm.Global, resolver.KeyFromContext(s))

	assert.False(t, s.Activate("UNKNOWN"))
	assert.True(t, s.Activate("TAB2"))
	window, ok := s.ActiveWindow()
	require.True(t, ok)
	assert.Equal(t, mitm.WindowID("TAB2"), window)
	assert.Equal(t, mitm.TabKey(1), resolver.KeyFromContext(s))
}

func TestTabSourceDispatchesThroughInterceptor(t *testing.T) {
	s := sourceWithTabs("TAB1", "TAB2")
	registry := mitm.NewRegistry()
	resolver := mitm.NewResolver(s)
	mitm.NewInterceptor(s, registry, resolver)
	signals := mitm.NewSignals("")

	registry.Add(signals.Record, resolver.KeyFromTab("TAB1"))

	onOne := NewPausedRequest(pausedEvent("https://one.example/", "TAB1", nil))
	onTwo := NewPausedRequest(pausedEvent("https://two.example/", "TAB2", nil))
	s.Emit(onOne)
	s.Emit(onTwo)

	assert.Equal(t, "record", onOne.Header(mitm.DefaultSignalHeader))
	assert.Nil(t, onTwo.ContinueParams().Headers)
}

func TestTabSourceTargetDestroyed(t *testing.T) {
	s := sourceWithTabs("TAB1", "TAB2")
	s.Activate("TAB1")
	var closed []mitm.TabID
	s.OnTabClosed(func(id mitm.TabID) { closed = append(closed, id) })

	s.targetDestroyed("TAB1")
	s.targetDestroyed("TAB1")
	s.targetDestroyed("SERVICE_WORKER")

	assert.Equal(t, []mitm.TabID{"TAB1"}, closed)
	_, ok := s.ActiveWindow()
	assert.False(t, ok)
	_, ok = s.TabForWindow("TAB1")
	assert.False(t, ok)
	assert.Equal(t, []mitm.TabID{"TAB2"}, s.Tabs())
	s.Close()
}
