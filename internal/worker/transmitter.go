package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// LogLine is one line the child wrote to stderr, forwarded unparsed for
// display; the child's own leveled log output lives here, separate from
// the structured ChildMessage stream on stdout.
type LogLine struct {
	Text string
}

// Transmitter lives in the parent process. It spawns the repair worker
// binary, feeds it ParentMessages, and exposes every ChildMessage and
// log line it writes back on channels.
type Transmitter struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	messages chan ChildMessage
	logLines chan LogLine

	closeOnce sync.Once
}

// Start spawns name with args (conventionally, args[0] is the handler
// registry key the child selects), and begins forwarding its stdout as
// ChildMessages and its stderr as LogLines. The caller must eventually
// call Disconnect.
func Start(ctx context.Context, name string, args ...string) (*Transmitter, error) {
	return StartCmd(exec.CommandContext(ctx, name, args...))
}

// StartCmd is Start for a caller that needs to customize the child's
// *exec.Cmd first (environment variables, working directory) before it
// is started.
func StartCmd(cmd *exec.Cmd) (*Transmitter, error) {
	name := cmd.Path
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("worker: wiring stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("worker: wiring stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("worker: wiring stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("worker: starting %s: %w", name, err)
	}

	t := &Transmitter{
		cmd:      cmd,
		stdin:    stdin,
		stdout:   stdout,
		messages: make(chan ChildMessage, 16),
		logLines: make(chan LogLine, 16),
	}

	go t.readMessages(stdout)
	go t.readLogLines(stderr)

	return t, nil
}

func (t *Transmitter) readMessages(r io.Reader) {
	defer close(t.messages)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg ChildMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			t.messages <- NewError(fmt.Sprintf("worker: malformed reply: %v", err))
			continue
		}
		t.messages <- msg
	}
}

func (t *Transmitter) readLogLines(r io.Reader) {
	defer close(t.logLines)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		t.logLines <- LogLine{Text: scanner.Text()}
	}
}

// Messages is the channel of replies from the worker; it closes when
// the worker's stdout closes.
func (t *Transmitter) Messages() <-chan ChildMessage { return t.messages }

// LogLines is the channel of the worker's forwarded stderr output.
func (t *Transmitter) LogLines() <-chan LogLine { return t.logLines }

// Send encodes msg as a single line of JSON and writes it to the
// worker's stdin.
func (t *Transmitter) Send(msg ParentMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("worker: encoding command: %w", err)
	}
	data = append(data, '\n')
	_, err = t.stdin.Write(data)
	return err
}

// Disconnect sends a Disconnect message, closes stdin, and waits for
// the worker process to exit. It is safe to call more than once.
func (t *Transmitter) Disconnect() error {
	var waitErr error
	t.closeOnce.Do(func() {
		_ = t.Send(ParentMessage{Type: TypeDisconnect})
		_ = t.stdin.Close()
		waitErr = t.cmd.Wait()
	})
	return waitErr
}
