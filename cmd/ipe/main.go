// ipe CLI - evaluates annotated programs at compile time
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/ipe/compiler"
	"github.com/chazu/ipe/manifest"
	"github.com/chazu/ipe/server"
	"github.com/chazu/ipe/vm"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is main without the process exit, so it can be driven from tests.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ipe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "Verbose output")
	debugCalls := fs.Int("debug-calls", -1, "Calls debug level (above 1 traces every arithmetic primitive)")
	dump := fs.Bool("dump", false, "Print the decoded tree instead of evaluating it")
	serveMode := fs.Bool("serve", false, "Start the evaluation server (Connect over CBOR)")
	addr := fs.String("addr", "", "Server address (used with -serve, default from ipe.toml)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ipe [options] program.{yaml,cbor}...\n\n")
		fmt.Fprintf(stderr, "Evaluates annotated programs in one shared session and prints each result.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  ipe prog.yaml             # Evaluate and print the result\n")
		fmt.Fprintf(stderr, "  ipe -dump prog.cbor       # Show the decoded tree\n")
		fmt.Fprintf(stderr, "  ipe -serve -addr :8080    # Serve sessions over RPC\n")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	m, err := loadManifest()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	verbosity := m.Log.Verbosity
	if *verbose {
		verbosity++
	}
	commonlog.Configure(verbosity, m.LogPath())
	log := commonlog.GetLogger("ipe.cli")

	opts := m.SessionOptions()
	if *debugCalls >= 0 {
		opts.DebugLevelCalls = *debugCalls
	}

	if *serveMode {
		listen := m.Server.Addr
		if *addr != "" {
			listen = *addr
		}
		srv := server.New(opts)
		defer srv.Stop()
		if err := srv.ListenAndServe(listen); err != nil {
			fmt.Fprintf(stderr, "Server error: %v\n", err)
			return 1
		}
		return 0
	}

	paths := fs.Args()
	if len(paths) == 0 {
		fs.Usage()
		return 2
	}

	session := vm.NewSession(opts)
	for _, path := range paths {
		prog, err := decodeFile(path, session)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		if *dump {
			fmt.Fprintln(stdout, compiler.Dump(prog.Root))
			continue
		}

		log.Infof("evaluating %s", path)
		v, err := session.Run(prog)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", path, err)
			return 1
		}
		if len(paths) > 1 {
			fmt.Fprintf(stdout, "%s: %s\n", path, v)
		} else {
			fmt.Fprintln(stdout, v)
		}
	}
	return 0
}

// loadManifest finds ipe.toml above the working directory, falling back to
// the defaults.
func loadManifest() (*manifest.Manifest, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	m, err := manifest.FindAndLoad(cwd)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = manifest.Default()
	}
	return m, nil
}

// decodeFile decodes a program by file extension.
func decodeFile(path string, d compiler.Declarer) (*compiler.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return compiler.DecodeYAML(data, d)
	case ".cbor":
		return compiler.DecodeCBOR(data, d)
	}
	return nil, fmt.Errorf("%s: unknown program format (want .yaml or .cbor)", path)
}
