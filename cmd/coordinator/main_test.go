package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v2"
)

// TestAppFlags verifies flag defaults and environment bindings
func TestAppFlags(t *testing.T) {
	app := newApp()

	flags := make(map[string]cli.Flag)
	for _, f := range app.Flags {
		flags[f.Names()[0]] = f
	}

	listen, ok := flags["listen"].(*cli.StringFlag)
	if assert.True(t, ok) {
		assert.Equal(t, ":8080", listen.Value)
		assert.Contains(t, listen.EnvVars, "COORDINATOR_ADDR")
	}

	interval, ok := flags["gc-interval"].(*cli.DurationFlag)
	if assert.True(t, ok) {
		assert.Equal(t, 30*time.Second, interval.Value)
	}

	minRemoves, ok := flags["gc-min-removes"].(*cli.Int64Flag)
	if assert.True(t, ok) {
		assert.Equal(t, int64(1000), minRemoves.Value)
	}

	for _, name := range []string{"metrics-listen", "gc-rate", "gc-burst", "request-timeout", "log-level", "log-format"} {
		assert.Contains(t, flags, name)
	}
}

// TestAppRejectsBadLogFormat verifies startup fails before binding listeners
func TestAppRejectsBadLogFormat(t *testing.T) {
	app := newApp()
	err := app.Run([]string{"coordinator", "--log-format", "xml"})
	assert.Error(t, err)
}
