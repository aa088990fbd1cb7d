package browser

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ysmood/gson"
)

func pausedEvent(url string, frame proto.PageFrameID, headers map[string]string) *proto.FetchRequestPaused {
	networkHeaders := proto.NetworkHeaders{}
	for k, v := range headers {
		networkHeaders[k] = gson.New(v)
	}
	return &proto.FetchRequestPaused{
		RequestID: "req-1",
		FrameID:   frame,
		Request: &proto.NetworkRequest{
			URL:     url,
			Method:  "GET",
			Headers: networkHeaders,
		},
	}
}

func TestPausedRequestHeaders(t *testing.T) {
	req := NewPausedRequest(pausedEvent("https://example.com/", "F1", map[string]string{
		"Accept":     "text/html",
		"User-Agent": "test",
	}))

	assert.Equal(t, "https://example.com/", req.URL())
	assert.Equal(t, "GET", req.Method())
	assert.Equal(t, proto.PageFrameID("F1"), req.FrameID())
	assert.Equal(t, "text/html", req.Header("accept"))
	assert.Empty(t, req.Header("X-Security-Proxy"))
}

func TestPausedRequestUntouchedContinuesAsIs(t *testing.T) {
	req := NewPausedRequest(pausedEvent("https://example.com/", "F1", map[string]string{"Accept": "*/*"}))

	params := req.ContinueParams()
	assert.Equal(t, proto.FetchRequestID("req-1"), params.RequestID)
	assert.Nil(t, params.Headers)
}

func TestPausedRequestSetHeader(t *testing.T) {
	req := NewPausedRequest(pausedEvent("https://example.com/", "F1", map[string]string{
		"Accept":           "*/*",
		"x-security-proxy": "record",
	}))

	req.SetHeader("X-Security-Proxy", "intercept")
	req.SetHeader("X-Security-Proxy", "intercept")
	req.SetHeader("X-Extra", "1")

	params := req.ContinueParams()
	require.NotNil(t, params.Headers)
	assert.Equal(t, []*proto.FetchHeaderEntry{
		{Name: "Accept", Value: "*/*"},
		{Name: "x-security-proxy", Value: "intercept"},
		{Name: "X-Extra", Value: "1"},
	}, params.Headers)
	assert.Equal(t, "intercept", req.Header("X-SECURITY-PROXY"))
}

func TestPausedRequestWithoutRequest(t *testing.T) {
	req := NewPausedRequest(&proto.FetchRequestPaused{RequestID: "req-2"})
	assert.Empty(t, req.URL())
	assert.Empty(t, req.Method())
	req.SetHeader("X-Security-Proxy", "record")
	assert.Len(t, req.ContinueParams().Headers, 1)
}

func TestNetworkHeadersConversion(t *testing.T) {
	entries := []*proto.FetchHeaderEntry{
		{Name: "B", Value: "2"},
		{Name: "A", Value: "1"},
	}
	back := ConvertFromNetworkHeaders(ConvertToNetworkHeaders(entries))
	assert.Equal(t, []*proto.FetchHeaderEntry{
		{Name: "A", Value: "1"},
		{Name: "B", Value: "2"},
	}, back)
}

func TestIsHTTP(t *testing.T) {
	assert.True(t, isHTTP("http://example.com"))
	assert.True(t, isHTTP("https://example.com/a?b=c"))
	assert.False(t, isHTTP("data:text/plain,hi"))
	assert.False(t, isHTTP("chrome-extension://abc/x.js"))
	assert.False(t, isHTTP("::"))
}
