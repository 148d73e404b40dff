package script

import "errors"

// Errors returned by script execution.
var (
	// ErrScriptFailed indicates the Lua source raised or failed to run.
	ErrScriptFailed = errors.New("script failed")

	// ErrRunnerClosed indicates the runner has been closed.
	ErrRunnerClosed = errors.New("runner is closed")
)
