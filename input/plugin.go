package input

import "context"

type Plugin interface {
	Name() string
	// Start starts the plugin.
	// The plugin calls cancel should any non-recoverable error occur after Start has returned.
	// if Start returns an error, or cancel is called by the plugin,
	// the caller (e.g. main process) should shut down all its resources and exit.
	Start(handler Handler, cancel context.CancelFunc) error
	Stop() // Should block until shutdown is complete.
}
