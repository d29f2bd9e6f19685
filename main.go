package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"
	"github.com/pkg/errors"

	"github.com/Mrs4s/go-x86-injector/injector"
)

const (
	exitOK      = 0
	exitUsage   = 1
	exitFailure = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("x86-injector", flag.ContinueOnError)
	timeout := fs.Duration("timeout", injector.DefaultTimeout, "how long to wait for the remote LoadLibraryW call")
	noImageCheck := fs.Bool("no-image-check", false, "skip the DLL machine type check")
	resolver := fs.String("resolver", "local", "loader address resolution: local or export")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: x86-injector [flags] <pid|exe-name> <dll_path>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return exitUsage
	}

	opts := []injector.Option{
		injector.WithTimeout(*timeout),
		injector.WithImageCheck(!*noImageCheck),
	}
	switch *resolver {
	case "local":
	case "export":
		opts = append(opts, injector.WithResolver(&injector.ExportResolver{}))
	default:
		fs.Usage()
		return exitUsage
	}

	pid, err := resolvePID(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] [%s] %v\n", fs.Arg(0), err)
		return exitFailure
	}
	dllPath, err := filepath.Abs(fs.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] [%d] invalid dll path: %v\n", pid, err)
		return exitFailure
	}

	fmt.Printf("[INFO] [%d] injecting %s\n", pid, dllPath)
	if err = injector.New(opts...).Inject(pid, dllPath); err != nil {
		if code, ok := injector.ErrorCode(err); ok {
			fmt.Fprintf(os.Stderr, "[ERROR] [%d] %v (code %d)\n", pid, err, code)
		} else {
			fmt.Fprintf(os.Stderr, "[ERROR] [%d] %v\n", pid, err)
		}
		return exitFailure
	}
	fmt.Printf("[INFO] [%d] injected %s\n", pid, filepath.Base(dllPath))
	return exitOK
}

// resolvePID accepts a numeric pid or an executable name looked up among running processes.
func resolvePID(arg string) (uint32, error) {
	if pid, err := strconv.ParseUint(arg, 10, 32); err == nil {
		return uint32(pid), nil
	}
	list, err := ps.Processes()
	if err != nil {
		return 0, errors.Wrap(err, "list processes")
	}
	for _, p := range list {
		if strings.EqualFold(p.Executable(), arg) {
			return uint32(p.Pid()), nil
		}
	}
	return 0, errors.Errorf("no running process named %s", arg)
}
