package cli

import (
	"bufio"
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/few/internal/presentation/tui"
	"github.com/aretw0/few/pkg/domain"
	"github.com/aretw0/few/pkg/naming"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	// Component to run. Empty picks the entry point of the components directory.
	Component string
	// SessionID to resume. Empty derives a stable ID from the directory and component.
	SessionID string
	Props     map[string]any
	Headless  bool
	Watch     bool
	// Fresh discards the stored session before starting.
	Fresh bool
}

// Run drives a session interactively: it renders the component view, reads action names
// from in and re-renders after every change. "exit", "quit" or EOF end the loop.
// With Watch, edits to the component file reload the definition and keep the data.
func Run(ctx context.Context, h *Host, opts RunOptions, in io.Reader, out io.Writer) error {
	names, err := h.Engine.Components(ctx)
	if err != nil {
		return err
	}
	name, err := EntryPoint(names, opts.Component, h.Config.Components)
	if err != nil {
		return err
	}

	id := opts.SessionID
	if id == "" {
		abs, _ := filepath.Abs(h.Config.Components)
		sum := md5.Sum([]byte(abs + "#" + name))
		id = fmt.Sprintf("run-%x", sum[:4])
	}
	if opts.Fresh {
		if err := h.Sessions.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}
	}
	if _, err := h.Sessions.LoadOrStart(ctx, id, name, opts.Props); err != nil {
		return err
	}
	h.Logger.Info("session ready", "session_id", id, "component", name)

	render := func(s string) (string, error) { return s, nil }
	if !opts.Headless {
		tui.PrintBanner(out)
		render = tui.NewRenderer()
	}

	var mu sync.Mutex
	draw := func() {
		var text string
		if _, err := h.Sessions.Component(ctx, id, func(c *domain.Component) error {
			text = tui.ViewText(c)
			if bar := tui.ActionBar(c); bar != "" && !opts.Headless {
				text += "\n\n" + bar
			}
			return nil
		}); err != nil {
			mu.Lock()
			fmt.Fprintf(out, "error: %v\n", err)
			mu.Unlock()
			return
		}
		if rendered, err := render(text); err == nil {
			text = rendered
		}
		mu.Lock()
		fmt.Fprintln(out, strings.TrimSpace(text))
		mu.Unlock()
	}

	if opts.Watch {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		events, err := h.Loader.Watch(watchCtx)
		if err != nil {
			return fmt.Errorf("watch failed: %w", err)
		}
		go func() {
			for changed := range events {
				if naming.Canonical(changed) != naming.Canonical(name) {
					continue
				}
				h.Logger.Info("change detected, reloading", "component", name)
				h.Sessions.Evict(id)
				draw()
			}
		}()
	}

	draw()
	lines := bufio.NewScanner(in)
	for {
		if !opts.Headless {
			mu.Lock()
			fmt.Fprint(out, "> ")
			mu.Unlock()
		}
		if !lines.Scan() {
			return lines.Err()
		}
		input, err := SanitizeInput(lines.Text())
		if err != nil {
			mu.Lock()
			fmt.Fprintf(out, "error: %v\n", err)
			mu.Unlock()
			continue
		}
		input = strings.TrimSpace(input)
		switch input {
		case "":
			continue
		case "exit", "quit":
			if !opts.Headless {
				fmt.Fprintln(out, "Bye!")
			}
			return nil
		}

		res, err := h.Sessions.Invoke(ctx, id, input)
		if err != nil {
			mu.Lock()
			fmt.Fprintf(out, "error: %v\n", err)
			mu.Unlock()
		}
		if res != nil && res.Diff != nil {
			draw()
		}
	}
}

// EntryPoint picks the component to run: the requested one, the only one, or the first of
// "main", "index" and the directory name that exists.
func EntryPoint(names []string, requested, dir string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	if len(names) == 1 {
		return names[0], nil
	}
	abs, _ := filepath.Abs(dir)
	for _, candidate := range []string{"main", "index", filepath.Base(abs)} {
		if slices.Contains(names, candidate) {
			return candidate, nil
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no components found in %s", dir)
	}
	return "", fmt.Errorf("several components found, choose one of: %s", strings.Join(names, ", "))
}
