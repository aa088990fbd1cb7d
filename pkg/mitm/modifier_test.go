package mitm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignals(t *testing.T) {
	signals := NewSignals("")
	assert.Equal(t, DefaultSignalHeader, signals.Header)

	req := newFakeRequest("http://example.com", "")
	assert.NoError(t, signals.Record.Apply(req))
	assert.Equal(t, "record", req.Header("X-Security-Proxy"))

	assert.NoError(t, signals.Intercept.Apply(req))
	assert.NoError(t, signals.Intercept.Apply(req))
	assert.Equal(t, "intercept", req.Header("X-Security-Proxy"))
	assert.Len(t, req.header.Values("X-Security-Proxy"), 1)
}

func TestSignalsCustomHeader(t *testing.T) {
	signals := NewSignals("X-Zap-Signal")
	req := newFakeRequest("http://example.com", "")

	assert.NoError(t, signals.Record.Apply(req))
	assert.Equal(t, "record", req.Header("X-Zap-Signal"))
	assert.Empty(t, req.Header(DefaultSignalHeader))
}

func TestSignalsByName(t *testing.T) {
	signals := NewSignals("")

	m, ok := signals.ByName("record")
	assert.True(t, ok)
	assert.Same(t, signals.Record, m)

	m, ok = signals.ByName("intercept")
	assert.True(t, ok)
	assert.Same(t, signals.Intercept, m)

	_, ok = signals.ByName("drop")
	assert.False(t, ok)
}

func TestModifierWithoutFunction(t *testing.T) {
	var m *Modifier
	assert.Error(t, m.Apply(newFakeRequest("http://example.com", "")))
	assert.Error(t, NewModifier("empty", nil).Apply(newFakeRequest("http://example.com", "")))
}
