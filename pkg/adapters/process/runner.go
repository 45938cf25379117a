// Package process exposes allow-listed external commands as action functions.
//
// Each tool from a tools file is registered in a registry.Registry under its name, so
// component definitions can use it as fn. Arguments never reach the command line: they are
// passed as environment variables (FEW_ARG_0.., FEW_ARG_<PARAM> and FEW_ARGS as a JSON
// array). Standard output is the result, decoded as JSON when it looks like JSON.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/few/pkg/domain"
	"github.com/aretw0/few/pkg/registry"
)

// EnvPrefix prefixes every argument variable.
const EnvPrefix = "FEW_ARG"

// Runner executes registered local processes.
// It follows a Strict Registry pattern for security (Allow-Listing).
type Runner struct {
	registry map[string]ProcessConfig
	baseDir  string
	timeout  time.Duration
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(tools map[string]ProcessConfig) RunnerOption {
	return func(r *Runner) {
		for name, tool := range tools {
			tool.Name = name
			r.registry[name] = tool
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithTimeout sets the default run timeout (30s).
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = d
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]ProcessConfig),
		timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = ProcessConfig{Name: name, Command: command, Args: args}
}

// Names returns the registered tool names, sorted.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bind registers every tool in reg as an action function.
// Action functions carry no context, so each run is bounded by the tool or runner timeout.
func (r *Runner) Bind(reg *registry.Registry) {
	for name := range r.registry {
		name := name
		reg.Register(name, func(_ any, args ...any) (any, error) {
			return r.Execute(context.Background(), name, args...)
		})
	}
}

// Execute runs the named tool with args and returns its decoded standard output.
// A non-zero exit is an error carrying the tool's standard error.
func (r *Runner) Execute(ctx context.Context, name string, args ...any) (any, error) {
	proc, ok := r.registry[name]
	if !ok {
		return nil, fmt.Errorf("process tool not registered: %s", name)
	}

	timeout := r.timeout
	if proc.Timeout != "" {
		if d, err := time.ParseDuration(proc.Timeout); err == nil {
			timeout = d
		}
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	env, err := argEnv(proc.Params, args)
	if err != nil {
		return nil, err
	}
	for k, v := range proc.Environment {
		env = append(env, k+"="+v)
	}

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir
	cmd.Env = append(cmd.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", name, ctx.Err())
		}
		return nil, fmt.Errorf("%s: execution failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return decodeOutput(stdout.String()), nil
}

// argEnv serializes args as environment variables. Strings and numbers are passed as is,
// everything else as JSON.
func argEnv(params []string, args []any) ([]string, error) {
	all, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNotSerializable, err)
	}
	env := []string{EnvPrefix + "S=" + string(all)}

	for i, arg := range args {
		val, err := envValue(arg)
		if err != nil {
			return nil, err
		}
		env = append(env, fmt.Sprintf("%s_%d=%s", EnvPrefix, i, val))
		if i < len(params) {
			env = append(env, fmt.Sprintf("%s_%s=%s", EnvPrefix, strings.ToUpper(params[i]), val))
		}
	}
	return env, nil
}

func envValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case int, int64, float64, bool, json.Number:
		return fmt.Sprintf("%v", x), nil
	}
	if domain.IsAbsent(v) {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrNotSerializable, err)
	}
	return string(b), nil
}

func decodeOutput(output string) any {
	trimmed := strings.TrimSpace(output)
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var result any
		dec := json.NewDecoder(strings.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&result); err == nil {
			return result
		}
	}
	return trimmed
}
