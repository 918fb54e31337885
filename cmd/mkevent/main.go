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

// Implements a simple utility for building a JSON-encoded CloudEvents envelope.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"sigs.k8s.io/yaml"

	"knative.dev/envelope/pkg/config"
	"knative.dev/envelope/pkg/envelope"
	"knative.dev/envelope/pkg/logging"
)

const timeNow = "now"

var now = time.Now

// extensionFlags collects repeated -ext name=value flags in command line order.
type extensionFlags []string

func (f *extensionFlags) String() string {
	return strings.Join(*f, ",")
}

func (f *extensionFlags) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("extension %q must be of the form name=value", v)
	}
	*f = append(*f, v)
	return nil
}

type options struct {
	id, eventType, source     string
	subject, dataContentType  string
	dataSchema, data, evtTime string
	output                    string
	extensions                extensionFlags
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

	if err := run(cfg, os.Args[1:], os.Stdout); err != nil {
		logger.Error("Failed to build event", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, args []string, out io.Writer) error {
	var o options
	fs := flag.NewFlagSet("mkevent", flag.ContinueOnError)
	fs.StringVar(&o.id, "id", "", "Event ID to use. Defaults to a generated UUID")
	fs.StringVar(&o.eventType, "type", "dev.knative.envelope.demo", "The Event Type to use.")
	fs.StringVar(&o.source, "source", "", "Source URI to use. Defaults to the current machine's hostname")
	fs.StringVar(&o.subject, "subject", "", "Event subject")
	fs.StringVar(&o.dataContentType, "datacontenttype", "", "Content type of the event data")
	fs.StringVar(&o.dataSchema, "dataschema", "", "Schema URI of the event data")
	fs.StringVar(&o.data, "data", "", "Event data, JSON or a plain string")
	fs.StringVar(&o.evtTime, "time", timeNow, "Event time in ISO-8601. Empty omits the attribute")
	fs.StringVar(&o.output, "output", "json", "Output format, json or yaml")
	fs.Var(&o.extensions, "ext", "Extension attribute as name=value, may be repeated")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if o.output != "json" && o.output != "yaml" {
		return fmt.Errorf("unknown output format %q", o.output)
	}

	e, err := build(cfg, o)
	if err != nil {
		return err
	}
	b, err := e.ToJSON(cfg.MarshalOptions()...)
	if err != nil {
		return err
	}
	if o.output == "yaml" {
		// YAML mappings carry no key order; keys come out sorted.
		y, err := yaml.JSONToYAML(b)
		if err != nil {
			return err
		}
		_, err = out.Write(y)
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n", b)
	return err
}

func build(cfg *config.Config, o options) (*envelope.Envelope, error) {
	if o.id == "" {
		o.id = uuid.New().String()
	}
	if o.source == "" {
		var err error
		o.source, err = os.Hostname()
		if err != nil {
			o.source = "localhost"
		}
	}

	opts := []envelope.Option{envelope.WithSpecVersion(cfg.SpecVersion)}
	if o.subject != "" {
		opts = append(opts, envelope.WithSubject(o.subject))
	}
	if o.dataContentType != "" {
		opts = append(opts, envelope.WithDataContentType(o.dataContentType))
	}
	if o.dataSchema != "" {
		opts = append(opts, envelope.WithDataSchema(o.dataSchema))
	}
	switch o.evtTime {
	case "":
	case timeNow:
		opts = append(opts, envelope.WithTime(now().UTC()))
	default:
		t, err := envelope.ParseTime(o.evtTime)
		if err != nil {
			return nil, err
		}
		opts = append(opts, envelope.WithTime(t))
	}
	if o.data != "" {
		opts = append(opts, envelope.WithData(parseData(o.data)))
	}
	for _, ext := range o.extensions {
		name, value, _ := strings.Cut(ext, "=")
		opts = append(opts, envelope.WithExtension(name, value))
	}
	return envelope.New(o.id, o.source, o.eventType, opts...)
}

// parseData returns the decoded JSON value of s, or s itself when it is not JSON.
func parseData(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}
