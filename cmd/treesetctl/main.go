// Package main is a command-line client for the tree set coordinator API.
//
// Example usage:
//
//	treesetctl insert 5 3 8
//	treesetctl contains 3 99
//	treesetctl remove 8
//	treesetctl gc
//	treesetctl stats
//
// The coordinator address is taken from --addr or COORDINATOR_ADDR.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/slices"

	"github.com/dreamware/treeset/internal/logging"
	"github.com/dreamware/treeset/internal/protocol"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "treesetctl",
		Usage: "talk to a tree set coordinator",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "coordinator base URL",
				Value:   "http://127.0.0.1:8080",
				EnvVars: []string{"COORDINATOR_ADDR"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "per-request timeout",
				Value: 5 * time.Second,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(cctx *cli.Context) error {
			_, err := logging.Configure(cctx.String("log-level"), "text", cctx.App.ErrWriter)
			return err
		},
		Commands: []*cli.Command{
			{
				Name:      "insert",
				Usage:     "add elements to the set",
				ArgsUsage: "<elem>...",
				Action:    operationAction(protocol.Insert, "/insert"),
			},
			{
				Name:      "contains",
				Usage:     "report whether elements are in the set",
				ArgsUsage: "<elem>...",
				Action:    operationAction(protocol.Contains, "/contains"),
			},
			{
				Name:      "remove",
				Usage:     "remove elements from the set",
				ArgsUsage: "<elem>...",
				Action:    operationAction(protocol.Remove, "/remove"),
			},
			{
				Name:   "gc",
				Usage:  "request a garbage-collection cycle",
				Action: runGC,
			},
			{
				Name:   "stats",
				Usage:  "print coordinator statistics",
				Action: runStats,
			},
		},
	}
}

// parseElems parses, sorts, and de-duplicates element arguments.
func parseElems(args []string) ([]int, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one element is required")
	}
	elems := make([]int, 0, len(args))
	for _, a := range args {
		e, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid element %q: %w", a, err)
		}
		elems = append(elems, e)
	}
	slices.Sort(elems)
	return slices.Compact(elems), nil
}

func operationAction(kind protocol.Kind, path string) cli.ActionFunc {
	return func(cctx *cli.Context) error {
		elems, err := parseElems(cctx.Args().Slice())
		if err != nil {
			return err
		}

		url := cctx.String("addr") + path
		for i, elem := range elems {
			ctx, cancel := context.WithTimeout(cctx.Context, cctx.Duration("timeout"))
			var reply protocol.Reply
			err := protocol.PostJSON(ctx, url, protocol.Request{ID: int64(i + 1), Elem: elem}, &reply)
			cancel()
			if err != nil {
				return fmt.Errorf("%s %d: %w", kind, elem, err)
			}

			switch reply.Kind {
			case protocol.ContainsResult:
				fmt.Fprintf(cctx.App.Writer, "%d\t%t\n", elem, reply.Found)
			default:
				fmt.Fprintf(cctx.App.Writer, "%d\tok\n", elem)
			}
		}
		return nil
	}
}

func runGC(cctx *cli.Context) error {
	ctx, cancel := context.WithTimeout(cctx.Context, cctx.Duration("timeout"))
	defer cancel()
	if err := protocol.PostJSON(ctx, cctx.String("addr")+"/gc", struct{}{}, nil); err != nil {
		return fmt.Errorf("gc: %w", err)
	}
	fmt.Fprintln(cctx.App.Writer, "gc requested")
	return nil
}

func runStats(cctx *cli.Context) error {
	ctx, cancel := context.WithTimeout(cctx.Context, cctx.Duration("timeout"))
	defer cancel()

	var stats map[string]any
	if err := protocol.GetJSON(ctx, cctx.String("addr")+"/stats", &stats); err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	enc := json.NewEncoder(cctx.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}
