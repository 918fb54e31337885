/*
Copyright 2019 The Knative Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	conformance "github.com/cloudevents/conformance/pkg/event"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"knative.dev/envelope/pkg/config"
	"knative.dev/envelope/pkg/envelope"
	"knative.dev/envelope/pkg/logging"
)

/*
Example Output:

☁️  envelope
Context Attributes,
  specversion: 1.0
  type: com.github.pull_request.opened
  source: https://github.com/cloudevents/spec/pull
  subject: 123
  id: A234-1234-1234
  time: 2018-04-05T17:31:00Z
  datacontenttype: text/xml
Extensions,
  comexampleextension1: value
  comexampleothervalue: 5
Data,
  <much wow="xml"/>
*/

// display prints the given envelope in a human-readable format.
func display(out io.Writer, e *envelope.Envelope) error {
	_, err := fmt.Fprintf(out, "☁️  envelope\n%s", e)
	return err
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to create logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := logging.WithLogger(context.Background(), logger)
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		logger.Error("Failed to display events", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("event_display", flag.ContinueOnError)
	yaml := fs.Bool("yaml", false, "Read conformance YAML events instead of JSON")
	recursive := fs.Bool("recursive", false, "Descend into directories when reading YAML")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *yaml {
		return displayYAML(ctx, fs.Args(), *recursive, out)
	}
	if fs.NArg() == 0 {
		events, err := readJSON(logging.With(ctx, zap.String("file", "-")), stdin)
		if err != nil {
			return err
		}
		return displayAll(out, events)
	}

	// Files are parsed concurrently and printed in command line order.
	results := make([][]*envelope.Envelope, fs.NArg())
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range fs.Args() {
		i, name := i, name
		g.Go(func() error {
			events, err := readFile(gctx, name)
			results[i] = events
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, events := range results {
		if err := displayAll(out, events); err != nil {
			return err
		}
	}
	return nil
}

func displayAll(out io.Writer, events []*envelope.Envelope) error {
	for _, e := range events {
		if err := display(out, e); err != nil {
			return err
		}
	}
	return nil
}

func readFile(ctx context.Context, name string) ([]*envelope.Envelope, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readJSON(logging.With(ctx, zap.String("file", name)), f)
}

// readJSON parses every JSON envelope found in the stream r.
func readJSON(ctx context.Context, r io.Reader) ([]*envelope.Envelope, error) {
	logger := logging.FromContext(ctx)
	dec := json.NewDecoder(r)
	var events []*envelope.Envelope
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); errors.Is(err, io.EOF) {
			return events, nil
		} else if err != nil {
			return nil, &envelope.MalformedJSONError{Err: err}
		}
		e, err := envelope.ParseJSON(raw)
		if err != nil {
			return nil, err
		}
		logger.Debug("Parsed event", zap.Object("event", e))
		events = append(events, e)
	}
}

// displayYAML prints the envelopes of the given conformance files, or of stdin
// when no file is named.
func displayYAML(ctx context.Context, files []string, recursive bool, out io.Writer) error {
	logger := logging.FromContext(ctx)
	paths := "-"
	if len(files) > 0 {
		paths = strings.Join(files, ",")
	}
	events, err := conformance.FromYaml(paths, recursive)
	if err != nil {
		return err
	}
	for _, ev := range events {
		e, err := envelope.FromConformance(ev)
		if err != nil {
			return err
		}
		logger.Debug("Parsed event", zap.Object("event", e))
		if err := display(out, e); err != nil {
			return err
		}
	}
	return nil
}
