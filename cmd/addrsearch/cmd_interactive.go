package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"address_search_backend/internal/session"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Run a search session on the terminal",
	Long: `
Every line typed is treated as the new contents of the search box. Suggestions
are printed once typing pauses. ":N" picks suggestion N, an empty line clears
the search and ":q" quits.
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := loadDeps()
		if err != nil {
			return err
		}

		term := newTerminal(cmd.OutOrStdout(), isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()))
		opts := session.OptionsFromConfig(deps.cfg)
		// a terminal has nowhere else to show resolve failures
		opts.FailurePolicy = session.FailurePolicySurface

		ctrl := session.NewController(deps.upstreams.Provider, deps.upstreams.Resolver, term, deps.log, opts)
		defer ctrl.Close()

		return runInteractive(cmd.Context(), cmd.InOrStdin(), ctrl, term)
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

// terminal renders controller output. It is the controller's listener and
// the consumer of its snapshots, so every write goes through mu.
type terminal struct {
	mu     sync.Mutex
	out    io.Writer
	prompt bool
}

func newTerminal(out io.Writer, prompt bool) *terminal {
	return &terminal{out: out, prompt: prompt}
}

func (t *terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = fmt.Fprintf(t.out, format, args...)
}

func (t *terminal) showPrompt() {
	if t.prompt {
		t.printf("> ")
	}
}

func (t *terminal) OnSelectAddress(sel session.Selection) {
	if sel.Cleared() {
		t.printf("selection cleared\n")
		return
	}
	t.printf("selected: %s (%.6f, %.6f)\n", sel.Address, *sel.Latitude, *sel.Longitude)
}

func (t *terminal) OnResolveFailed(address string, err error) {
	t.printf("could not locate %q: %v\n", address, err)
}

func (t *terminal) render(snap session.Snapshot) {
	switch snap.Status {
	case session.StatusReady:
		if len(snap.Suggestions) == 0 {
			t.printf("no suggestions for %q\n", snap.Query)
			return
		}
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, s := range snap.Suggestions {
			_, _ = fmt.Fprintf(t.out, "  %d. %s\n", i+1, s.Description)
		}
	case session.StatusError:
		t.printf("suggestions unavailable: %s\n", snap.Error)
	}
}

// runInteractive feeds lines from in to ctrl until EOF, ":q" or ctx is done.
func runInteractive(ctx context.Context, in io.Reader, ctrl *session.Controller, term *terminal) error {
	updates, stop := ctrl.Watch()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		var last session.Snapshot
		for snap := range updates {
			if snap.Status != last.Status || snap.Query != last.Query {
				term.render(snap)
			}
			last = snap
		}
	}()
	defer func() {
		stop()
		wg.Wait()
	}()

	done := make(chan struct{})
	defer close(done)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	term.showPrompt()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if quit := handleLine(ctrl, term, line); quit {
				return nil
			}
			term.showPrompt()
		}
	}
}

func handleLine(ctrl *session.Controller, term *terminal, line string) (quit bool) {
	trimmed := strings.TrimSpace(line)

	if trimmed == ":q" {
		return true
	}

	if n, ok := strings.CutPrefix(trimmed, ":"); ok {
		idx, err := strconv.Atoi(n)
		if err != nil {
			term.printf("unknown command %q\n", trimmed)
			return false
		}
		current := ctrl.CurrentSuggestions()
		if current.Status != session.StatusReady || idx < 1 || idx > len(current.Suggestions) {
			term.printf("no suggestion %d\n", idx)
			return false
		}
		choice := current.Suggestions[idx-1].Description
		term.printf("locating %s\n", choice)
		ctrl.OnSuggestionSelected(choice)
		return false
	}

	ctrl.OnInputChanged(line)
	return false
}
