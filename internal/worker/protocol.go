// Package worker implements the parent↔child process bridge that
// drives a detached repair worker: typed messages in both directions,
// serialized as newline-delimited JSON over the child's stdin/stdout,
// and a small closed registry the child selects a handler from by a
// single startup argument.
package worker

// MessageType discriminates both ParentMessage and ChildMessage. Both
// message kinds share one enum so a stray reply can never be mistaken
// for a command by a caller that forgot to check direction.
type MessageType string

const (
	// Parent -> child.
	TypeValidate   MessageType = "validate"
	TypeDownload   MessageType = "download"
	TypeDisconnect MessageType = "disconnect"

	// Child -> parent.
	TypeValidateProgress MessageType = "validateProgress"
	TypeValidateComplete MessageType = "validateComplete"
	TypeDownloadProgress MessageType = "downloadProgress"
	TypeDownloadComplete MessageType = "downloadComplete"
	TypeError            MessageType = "error"
)

// ParentMessage is a command sent from the orchestrator to the worker
// process. At most one payload field is set, matching Type: Validate
// carries one, Download and Disconnect carry none.
type ParentMessage struct {
	Type MessageType `json:"type"`

	Validate *ValidateCommand `json:"validate,omitempty"`
}

// ValidateCommand carries everything the worker needs to build its two
// index processors without further round trips to the parent.
type ValidateCommand struct {
	ServerID          string `json:"serverId"`
	LauncherDirectory string `json:"launcherDirectory"`
	CommonDirectory   string `json:"commonDirectory"`
	InstanceDirectory string `json:"instanceDirectory"`
	DevMode           bool   `json:"devMode"`
}

// ChildMessage is a reply sent from the worker process back to the
// orchestrator. At most one payload field is set, matching Type;
// DownloadComplete carries none.
type ChildMessage struct {
	Type MessageType `json:"type"`

	ValidateProgress *Progress         `json:"validateProgress,omitempty"`
	ValidateComplete *ValidateComplete `json:"validateComplete,omitempty"`
	DownloadProgress *Progress         `json:"downloadProgress,omitempty"`
	Error            *ErrorPayload     `json:"error,omitempty"`
}

// Progress is a single integer percent, truncated at the layer that
// forwards IPC messages (the Download Engine itself reports raw bytes).
type Progress struct {
	Percent int `json:"percent"`
}

// ValidateComplete reports how many assets failed validation and will
// need a subsequent Download command.
type ValidateComplete struct {
	InvalidCount int `json:"invalidCount"`
}

// ErrorPayload is the only content an Error reply carries: a string
// already safe to show a user, produced by a handler's classifier.
type ErrorPayload struct {
	Displayable string `json:"displayable"`
}

// NewValidateProgress, NewValidateComplete, NewDownloadProgress,
// NewDownloadComplete, and NewError build correctly-tagged ChildMessage
// values so callers can't forget to set Type to match the payload.

func NewValidateProgress(percent int) ChildMessage {
	return ChildMessage{Type: TypeValidateProgress, ValidateProgress: &Progress{Percent: percent}}
}

func NewValidateComplete(invalidCount int) ChildMessage {
	return ChildMessage{Type: TypeValidateComplete, ValidateComplete: &ValidateComplete{InvalidCount: invalidCount}}
}

func NewDownloadProgress(percent int) ChildMessage {
	return ChildMessage{Type: TypeDownloadProgress, DownloadProgress: &Progress{Percent: percent}}
}

func NewDownloadComplete() ChildMessage {
	return ChildMessage{Type: TypeDownloadComplete}
}

func NewError(displayable string) ChildMessage {
	return ChildMessage{Type: TypeError, Error: &ErrorPayload{Displayable: displayable}}
}
