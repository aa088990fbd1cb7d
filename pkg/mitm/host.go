package mitm

// Request is an outgoing browser request that modifiers can mutate in place.
type Request interface {
	URL() string
	Header(name string) string
	SetHeader(name, value string)
}

// TabID is the identity the host gives a tab. It must stay the same for the
// whole life of the tab.
type TabID string

// WindowID identifies a content window (a frame) in the host.
type WindowID string

// EventSource delivers outgoing-request notifications from the host.
type EventSource interface {
	Subscribe(handler func(Request))
	OnTabClosed(handler func(TabID))
}

// TabLocator maps requests to the window that issued them, and windows to the
// tab hosting them. TabForWindow only reports top-level windows.
type TabLocator interface {
	WindowForRequest(req Request) (WindowID, bool)
	TabForWindow(window WindowID) (TabID, bool)
}

// CommandContext is the context a command runs in, used to resolve "current tab".
type CommandContext interface {
	ActiveWindow() (WindowID, bool)
}
