package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Handler runs one named repair step. Execute receives each ParentMessage
// in turn and may emit any number of ChildMessages through emit before
// returning. A non-nil error is passed to Classify to produce the string
// the Receiver reports back to the parent as Error{displayable}.
type Handler interface {
	Execute(ctx context.Context, msg ParentMessage, emit func(ChildMessage)) error
}

// Classifier turns an Execute failure into a user-facing string. Most
// handlers can return err.Error(); a classifier exists so handlers whose
// failures come from a typed envelope (e.g. mojang/msa ProviderCode) can
// surface something friendlier than a raw Go error string.
type Classifier func(error) string

type registryEntry struct {
	handler  Handler
	classify Classifier
}

// Receiver lives in the child process. It looks up exactly one handler
// from its registry by name, then dispatches every ParentMessage read
// from in to that handler until a Disconnect message or a read error.
type Receiver struct {
	registry map[string]registryEntry
	in       *bufio.Scanner
	out      *json.Encoder
}

// NewReceiver wires a Receiver to the child's stdin/stdout.
func NewReceiver(in io.Reader, out io.Writer) *Receiver {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Receiver{
		registry: make(map[string]registryEntry),
		in:       scanner,
		out:      json.NewEncoder(out),
	}
}

// Register adds name to the closed handler registry. Call during
// process startup, before Run; registrations after Run has started are
// not observed.
func (r *Receiver) Register(name string, h Handler, classify Classifier) {
	if classify == nil {
		classify = func(err error) string { return err.Error() }
	}
	r.registry[name] = registryEntry{handler: h, classify: classify}
}

// Run selects handlerName from the registry and dispatches ParentMessages
// to it one at a time until Disconnect (exit code 0), a handler failure
// (an Error reply is emitted first, exit code 1), or the input stream
// closes. An unregistered handlerName also exits 1 without reading
// anything from in.
func (r *Receiver) Run(ctx context.Context, handlerName string) int {
	entry, ok := r.registry[handlerName]
	if !ok {
		r.emit(NewError(fmt.Sprintf("unknown worker command %q", handlerName)))
		return 1
	}

	for r.in.Scan() {
		line := r.in.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg ParentMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			r.emit(NewError(fmt.Sprintf("malformed command: %v", err)))
			return 1
		}

		if msg.Type == TypeDisconnect {
			return 0
		}

		if err := entry.handler.Execute(ctx, msg, r.emit); err != nil {
			r.emit(NewError(entry.classify(err)))
			return 1
		}
	}
	if err := r.in.Err(); err != nil {
		r.emit(NewError(fmt.Sprintf("reading command stream: %v", err)))
		return 1
	}
	return 0
}

func (r *Receiver) emit(msg ChildMessage) {
	_ = r.out.Encode(msg)
}
