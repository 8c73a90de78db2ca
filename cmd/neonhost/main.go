// Command neonhost runs a page script against a simulated host.
//
// The host is described by a TOML file:
//
//	transport = "query"          # or "promise-text", "promise-structured"
//	subscription = "neonSubscribe"
//	verbose = true
//
//	[[delegate]]
//	name = "GetVersion"
//	mode = "static"              # echo (default), static, fail, silent, duplicate
//	response = { version = "1.0.0" }
//
//	[[delegate]]
//	name = "Ready"
//	kind = "event"
//
//	[[emit]]
//	name = "Update"
//	data = '{"n": 1}'
//
// The script is run once, with the NEON namespace and console available,
// and the command exits once no bridge calls are outstanding.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	gojabridge "github.com/joeycumines/go-hostbridge/goja-bridge"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "neonhost: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("neonhost", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "simulated host TOML `file`")
	transport := flags.String("transport", "", "override the transport: query, promise-text or promise-structured")
	quiet := flags.Bool("quiet", false, "disable non-error bridge diagnostics")
	debug := flags.Bool("debug", false, "enable debug logging")
	timeout := flags.Duration("timeout", 10*time.Second, "maximum time to wait for the script")
	journal := flags.Bool("journal", false, "print each call received by the host to stdout, as JSON lines")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("usage: neonhost [flags] script.js")
	}

	script, err := os.ReadFile(flags.Arg(0))
	if err != nil {
		return err
	}

	cfg := defaultHostConfig()
	if *configPath != "" {
		if cfg, err = loadHostConfig(*configPath); err != nil {
			return err
		}
	}
	if *transport != "" {
		if cfg.Transport, err = gojabridge.ParseTransportKind(*transport); err != nil {
			return err
		}
	}
	if *quiet {
		cfg.Verbose = false
	}

	level := logiface.LevelInformational
	if *debug {
		level = logiface.LevelDebug
	}
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(stderr)),
		stumpy.L.WithLevel(level),
	).Logger()

	s, err := newSession(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	runErr := s.run(ctx, flags.Arg(0), string(script))

	if *journal {
		enc := json.NewEncoder(stdout)
		for _, call := range s.calls() {
			if err := enc.Encode(call.Envelope); err != nil {
				return err
			}
		}
	}

	return runErr
}
