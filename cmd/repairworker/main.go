// Command repairworker is the detached child process spec.md §4.3
// describes: the parent launcher spawns it and talks to it over
// stdin/stdout using the newline-delimited JSON protocol in
// internal/worker. Its own human-readable log lines go to stderr,
// since stdout is reserved for that protocol.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quasar/launchercore/internal/repair"
	"github.com/quasar/launchercore/internal/worker"
)

func main() {
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	root := &cobra.Command{
		Use:           "repairworker",
		Short:         "Runs one worker.Handler from the repair-worker's closed registry, reading commands from stdin",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// One subcommand per entry in the receiver's registry, per spec.md
	// §4.3's "small closed map keyed by a startup-arg string" mapping
	// onto cobra's command tree.
	root.AddCommand(&cobra.Command{
		Use:   "repair",
		Short: "Full Repair: validates and downloads a server's vendor and distribution assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			os.Exit(runWorker(cmd.Context(), "repair", os.Stdin, os.Stdout))
			return nil
		},
	})

	if !term.IsTerminal(int(os.Stderr.Fd())) || os.Getenv("NO_COLOR") != "" {
		pterm.DisableStyling()
		pterm.RawOutput = true
	}

	if err := root.ExecuteContext(ctx); err != nil {
		pterm.Error.WithWriter(os.Stderr).Println(err)
		os.Exit(1)
	}
}

// runWorker wires a Receiver to in/out, registers every known handler,
// and runs the one named name until Disconnect, a handler failure, or
// the input stream closing.
func runWorker(ctx context.Context, name string, in io.Reader, out io.Writer) int {
	r := worker.NewReceiver(in, out)
	r.Register("repair", repair.NewHandler(), nil)
	return r.Run(ctx, name)
}

// signalContext cancels when the parent sends SIGTERM, or the worker
// is run interactively and the user hits Ctrl-C.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
