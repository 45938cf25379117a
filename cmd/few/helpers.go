package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
)

var errWatchHeadless = errors.New("--watch and --headless cannot be used together")

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
