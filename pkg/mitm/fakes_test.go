package mitm

import "net/http"

type fakeRequest struct {
	url    string
	window WindowID
	header http.Header
}

func newFakeRequest(url string, window WindowID) *fakeRequest {
	return &fakeRequest{url: url, window: window, header: http.Header{}}
}

func (r *fakeRequest) URL() string                  { return r.url }
func (r *fakeRequest) Header(name string) string    { return r.header.Get(name) }
func (r *fakeRequest) SetHeader(name, value string) { r.header.Set(name, value) }

// fakeHost plays the browser: windows map to tabs, and only windows listed in
// tabs are top-level.
type fakeHost struct {
	tabs     map[WindowID]TabID
	active   WindowID
	handlers []func(Request)
	closed   []func(TabID)
}

func newFakeHost() *fakeHost {
	return &fakeHost{tabs: make(map[WindowID]TabID)}
}

func (h *fakeHost) Subscribe(handler func(Request))  { h.handlers = append(h.handlers, handler) }
func (h *fakeHost) OnTabClosed(handler func(TabID)) { h.closed = append(h.closed, handler) }

func (h *fakeHost) WindowForRequest(req Request) (WindowID, bool) {
	fr, ok := req.(*fakeRequest)
	if !ok || fr.window == "" {
		return "", false
	}
	return fr.window, true
}

func (h *fakeHost) TabForWindow(window WindowID) (TabID, bool) {
	tab, ok := h.tabs[window]
	return tab, ok
}

func (h *fakeHost) ActiveWindow() (WindowID, bool) {
	return h.active, h.active != ""
}

func (h *fakeHost) emit(req Request) {
	for _, handler := range h.handlers {
		handler(req)
	}
}

func (h *fakeHost) close(tab TabID) {
	for _, handler := range h.closed {
		handler(tab)
	}
}
