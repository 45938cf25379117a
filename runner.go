package few

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/few/pkg/domain"
)

// Runner drives a component interactively: it shows the view, reads action names from Input
// and re-renders whenever a refresh is signalled.
//
// A Runner is a ports.Refresher; pass it to New with WithRefresher so the engine can tell it
// when to redraw.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
	// View turns the component into text. It is required.
	View func(c *domain.Component) string

	mu    sync.Mutex
	dirty bool
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a new Runner. Input, Output and View must be set before Run.
func NewRunner() *Runner {
	return &Runner{}
}

// Refresh marks the view for redraw.
func (r *Runner) Refresh(*domain.Component) {
	r.mu.Lock()
	r.dirty = true
	r.mu.Unlock()
}

func (r *Runner) takeDirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.dirty
	r.dirty = false
	return d
}

// Run executes the loop until EOF, "exit" or "quit".
// Unknown actions and failing actions are reported and the loop continues.
func (r *Runner) Run(c *domain.Component) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	if r.View == nil {
		return fmt.Errorf("view function must be set")
	}
	lineReader := bufio.NewReader(r.Input)

	if !r.Headless {
		fmt.Fprintf(r.Output, "--- few: %s ---\n", c.Name)
	}
	r.render(c)

	for {
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		text, err := lineReader.ReadString('\n')
		input := strings.TrimSpace(text)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("input error: %w", err)
		}

		switch input {
		case "":
		case "exit", "quit":
			if !r.Headless {
				fmt.Fprintln(r.Output, "Bye!")
			}
			return nil
		default:
			if invokeErr := c.Invoke(input); invokeErr != nil {
				fmt.Fprintf(r.Output, "error: %v\n", invokeErr)
			}
			if r.takeDirty() {
				r.render(c)
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

func (r *Runner) render(c *domain.Component) {
	output := r.View(c)
	if r.Renderer != nil {
		if rendered, err := r.Renderer(output); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimSpace(output))
}
