package browser

import (
	"sort"
	"strings"

	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// PausedRequest wraps a request paused by the CDP Fetch domain so modifiers can
// edit its headers before it is sent.
type PausedRequest struct {
	event   *proto.FetchRequestPaused
	headers []*proto.FetchHeaderEntry
	changed bool
}

func NewPausedRequest(e *proto.FetchRequestPaused) *PausedRequest {
	r := &PausedRequest{event: e}
	if e.Request != nil {
		r.headers = ConvertFromNetworkHeaders(e.Request.Headers)
	}
	return r
}

func (r *PausedRequest) URL() string {
	if r.event.Request == nil {
		return ""
	}
	return r.event.Request.URL
}

func (r *PausedRequest) Method() string {
	if r.event.Request == nil {
		return ""
	}
	return r.event.Request.Method
}

// FrameID is the frame that issued the request.
func (r *PausedRequest) FrameID() proto.PageFrameID {
	return r.event.FrameID
}

func (r *PausedRequest) Header(name string) string {
	for _, h := range r.headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// SetHeader replaces every value of name with value.
func (r *PausedRequest) SetHeader(name, value string) {
	r.changed = true
	kept := r.headers[:0]
	set := false
	for _, h := range r.headers {
		if !strings.EqualFold(h.Name, name) {
			kept = append(kept, h)
			continue
		}
		if !set {
			h.Value = value
			kept = append(kept, h)
			set = true
		}
	}
	r.headers = kept
	if !set {
		r.headers = append(r.headers, &proto.FetchHeaderEntry{Name: name, Value: value})
	}
}

func (r *PausedRequest) Headers() []*proto.FetchHeaderEntry {
	return r.headers
}

// ContinueParams builds the Fetch.continueRequest call for the request. Headers
// are only sent when a modifier touched them, so untouched requests go out as
// the browser built them.
func (r *PausedRequest) ContinueParams() *proto.FetchContinueRequest {
	params := &proto.FetchContinueRequest{RequestID: r.event.RequestID}
	if r.changed {
		params.Headers = r.headers
	}
	return params
}

// ConvertFromNetworkHeaders flattens CDP network headers into Fetch header
// entries, sorted by name.
func ConvertFromNetworkHeaders(headers proto.NetworkHeaders) []*proto.FetchHeaderEntry {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	entries := make([]*proto.FetchHeaderEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, &proto.FetchHeaderEntry{Name: name, Value: headers[name].String()})
	}
	return entries
}

// ConvertToNetworkHeaders is the inverse of ConvertFromNetworkHeaders.
func ConvertToNetworkHeaders(entries []*proto.FetchHeaderEntry) proto.NetworkHeaders {
	headers := make(proto.NetworkHeaders, len(entries))
	for _, h := range entries {
		headers[h.Name] = gson.New(h.Value)
	}
	return headers
}
