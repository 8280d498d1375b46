package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/hermes-ffi/hermes"
	"github.com/wippyai/hermes-ffi/memory"
	"github.com/wippyai/hermes-ffi/transcoder"
)

func main() {
	var (
		list        = flag.Bool("list", false, "List message kinds with their record sizes and exit")
		layoutKind  = flag.String("layout", "", "Print the record layout of a message kind")
		example     = flag.String("example", "", "Write an example envelope of a message kind to stdout")
		in          = flag.String("in", "", "Envelope file to convert (- for stdin)")
		format      = flag.String("format", "json", "Envelope format: json or cbor")
		guest       = flag.Bool("guest", false, "Place records in a wazero guest memory")
		configFile  = flag.String("config", "", "YAML config file")
		verbose     = flag.Bool("v", false, "Debug logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if err := run(options{
		list:        *list,
		layout:      *layoutKind,
		example:     *example,
		in:          *in,
		format:      *format,
		guest:       *guest,
		config:      *configFile,
		verbose:     *verbose,
		interactive: *interactive,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	layout      string
	example     string
	in          string
	format      string
	config      string
	list        bool
	guest       bool
	verbose     bool
	interactive bool
}

func run(opts options) error {
	ctx := context.Background()

	cfg, err := loadConfig(opts.config)
	if err != nil {
		return err
	}
	logger, err := cfg.logger(opts.verbose)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	transcoder.SetLogger(logger.Named("transcoder"))
	memory.SetLogger(logger.Named("memory"))

	r := renderer{out: os.Stdout, styled: term.IsTerminal(int(os.Stdout.Fd()))}

	switch {
	case opts.interactive:
		if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("interactive mode needs a terminal")
		}
		w, err := newWorkspace(ctx, cfg, opts.guest)
		if err != nil {
			return err
		}
		defer w.Close(ctx)
		return runInteractive(w)

	case opts.list:
		r.kinds()
		return nil

	case opts.layout != "":
		kind, err := hermes.ParseKind(opts.layout)
		if err != nil {
			return err
		}
		lay, _ := transcoder.Layout(kind)
		r.layout(lay)
		return nil

	case opts.example != "":
		kind, err := hermes.ParseKind(opts.example)
		if err != nil {
			return err
		}
		f, err := hermes.ParseFormat(opts.format)
		if err != nil {
			return err
		}
		data, err := hermes.Marshal(f, hermes.Example(kind))
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err

	case opts.in != "":
		f, err := hermes.ParseFormat(opts.format)
		if err != nil {
			return err
		}
		data, err := readInput(opts.in)
		if err != nil {
			return err
		}
		msg, err := hermes.Unmarshal(f, data)
		if err != nil {
			return err
		}

		w, err := newWorkspace(ctx, cfg, opts.guest)
		if err != nil {
			return err
		}
		defer w.Close(ctx)

		logger.Debug("converting",
			zap.Stringer("kind", msg.Kind()),
			zap.String("backend", w.backend()))
		c, err := w.convert(msg)
		if err != nil {
			return err
		}
		r.conversion(w.backend(), c)
		if c.releaseErr != nil {
			return c.releaseErr
		}
		if c.leaked() {
			return fmt.Errorf("release left %d live blocks", c.after.LiveBlocks)
		}
		return nil

	default:
		fmt.Fprintln(os.Stderr, "Usage: hermes-ffi -list")
		fmt.Fprintln(os.Stderr, "       hermes-ffi -layout <kind>")
		fmt.Fprintln(os.Stderr, "       hermes-ffi -example <kind> [-format json|cbor]")
		fmt.Fprintln(os.Stderr, "       hermes-ffi -in <file|-> [-format json|cbor] [-guest] [-config file.yaml]")
		fmt.Fprintln(os.Stderr, "       hermes-ffi -i  (interactive mode)")
		return fmt.Errorf("no action given")
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}
