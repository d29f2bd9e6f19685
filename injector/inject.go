package injector

import (
	"encoding/binary"
	"fmt"
	"math"
	"runtime"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/mitchellh/go-ps"
	"github.com/pkg/errors"
)

// DefaultTimeout bounds the wait for the remote LoadLibraryW call.
const DefaultTimeout = 100 * time.Second

const (
	loaderModule = "kernel32.dll"
	loaderSymbol = "LoadLibraryW"
)

// Injector loads a DLL into another process by running LoadLibraryW on a remote thread.
// It keeps no state between calls. Callers must not inject into the same process
// from two goroutines at once.
type Injector struct {
	opener     Opener
	host       Host
	resolver   Resolver
	timeout    time.Duration
	imageCheck bool
	inspect    func(path string) (uint16, error)
	exists     func(pid uint32) bool
	log        *logger.Logger
}

type Option func(*Injector)

func WithOpener(o Opener) Option {
	return func(inj *Injector) {
		inj.opener = o
	}
}

func WithHost(h Host) Option {
	return func(inj *Injector) {
		inj.host = h
	}
}

func WithResolver(r Resolver) Option {
	return func(inj *Injector) {
		inj.resolver = r
	}
}

// WithTimeout sets how long to wait for the remote thread. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(inj *Injector) {
		if d > 0 {
			inj.timeout = d
		}
	}
}

// WithImageCheck toggles the machine-type check of the DLL file done before touching the target.
func WithImageCheck(enabled bool) Option {
	return func(inj *Injector) {
		inj.imageCheck = enabled
	}
}

// WithImageInspector replaces the function reading a DLL's PE machine type.
func WithImageInspector(fn func(path string) (uint16, error)) Option {
	return func(inj *Injector) {
		inj.inspect = fn
	}
}

// WithProcessLookup replaces the liveness check used to tell a gone process from access denial.
func WithProcessLookup(fn func(pid uint32) bool) Option {
	return func(inj *Injector) {
		inj.exists = fn
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(inj *Injector) {
		inj.log = l
	}
}

func New(opts ...Option) *Injector {
	inj := &Injector{
		opener:     defaultOpener(),
		host:       defaultHost(),
		resolver:   defaultResolver(),
		timeout:    DefaultTimeout,
		imageCheck: true,
		inspect:    ImageMachine,
		exists:     processExists,
	}
	for _, opt := range opts {
		opt(inj)
	}
	return inj
}

// InjectOK is Inject reduced to a success flag.
func (inj *Injector) InjectOK(pid uint32, dllPath string) bool {
	return inj.Inject(pid, dllPath) == nil
}

// Inject loads dllPath into pid. It returns nil only once the module shows up in the
// target's module list; a remote thread that ran without error is not enough.
// dllPath is dereferenced by the target and must be valid from its point of view.
func (inj *Injector) Inject(pid uint32, dllPath string) (err error) {
	log := inj.logger(pid)
	defer func() {
		if err != nil {
			log.Warn("injection failed: ", err)
		}
	}()

	target, err := inj.opener.Open(pid)
	if err != nil {
		if inj.exists != nil && !inj.exists(pid) {
			return fail(ErrProcessGone, err)
		}
		return fail(ErrOpenProcess, err)
	}
	defer func() {
		if cerr := target.Close(); cerr != nil {
			log.Debugln("close process handle:", cerr)
		}
	}()

	if err = inj.checkBitness(target); err != nil {
		return err
	}
	if err = inj.checkImage(dllPath); err != nil {
		return err
	}

	entry, err := inj.resolver.Resolve(target, loaderModule, loaderSymbol)
	if err != nil {
		return fail(ErrResolve, err)
	}
	if entry == 0 {
		return fail(ErrResolve, errors.Errorf("%s!%s resolved to 0", loaderModule, loaderSymbol))
	}
	log.Debugln("loader entry point", fmt.Sprintf("0x%X", entry))

	if err = inj.execute(target, log, entry, encodeWide(dllPath)); err != nil {
		return err
	}
	return inj.verify(target, log, dllPath)
}

func (inj *Injector) checkBitness(target Target) error {
	remote, err := target.IsEmulated()
	if err != nil {
		return fail(ErrQueryProcess, errors.Wrap(err, "IsWow64Process target"))
	}
	local, err := inj.host.IsEmulated()
	if err != nil {
		return fail(ErrQueryProcess, errors.Wrap(err, "IsWow64Process self"))
	}
	if remote != local {
		return fail(ErrBitnessMismatch, errors.Errorf("target emulated=%v, injector emulated=%v", remote, local))
	}
	return nil
}

func (inj *Injector) checkImage(dllPath string) error {
	if !inj.imageCheck || inj.inspect == nil {
		return nil
	}
	want, known := hostMachine()
	if !known {
		return nil
	}
	got, err := inj.inspect(dllPath)
	if err != nil {
		return fail(ErrImageMismatch, err)
	}
	if got != want {
		return fail(ErrImageMismatch, errors.Errorf("dll machine 0x%X, injector machine 0x%X", got, want))
	}
	return nil
}

// execute writes arg into a fresh remote buffer and runs entry(buffer) on a remote thread.
// The buffer is released on every path once allocated.
func (inj *Injector) execute(target Target, log *logger.Logger, entry uintptr, arg []byte) error {
	buf, err := target.Alloc(len(arg))
	if err != nil {
		return fail(ErrAllocate, err)
	}
	defer func() {
		if ferr := target.Free(buf); ferr != nil {
			log.Warn("free remote buffer: ", ferr)
		}
	}()

	if err = target.Write(buf, arg); err != nil {
		return fail(ErrWrite, err)
	}

	thread, err := target.CreateThread(entry, buf)
	if err != nil {
		return fail(ErrCreateThread, err)
	}
	defer thread.Close()

	finished, err := thread.Wait(inj.timeout)
	if err != nil {
		return fail(ErrWait, err)
	}
	if !finished {
		return fail(ErrWaitTimeout, errors.Errorf("no exit after %v", inj.timeout))
	}
	if code, err := thread.ExitCode(); err == nil {
		if code == 0 {
			log.Warn("LoadLibraryW returned NULL")
		} else {
			log.Debugln("LoadLibraryW returned", fmt.Sprintf("0x%X", code))
		}
	}
	return nil
}

func (inj *Injector) verify(target Target, log *logger.Logger, dllPath string) error {
	modules, err := target.Modules()
	if err != nil {
		return fail(ErrNotLoaded, errors.Wrap(err, "enum process modules"))
	}
	if m, ok := findModule(modules, dllPath); ok {
		log.Infoln("module loaded at", fmt.Sprintf("0x%X", m.Base), m.Path)
		return nil
	}
	return fail(ErrNotLoaded, errors.Errorf("%s not in %d modules", baseName(dllPath), len(modules)))
}

func (inj *Injector) logger(pid uint32) *logger.Logger {
	if inj.log != nil {
		return inj.log
	}
	return logger.NewLogger(fmt.Sprintf("inject-%d", pid))
}

// encodeWide returns s as NUL-terminated UTF-16LE.
func encodeWide(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 0, (len(units)+1)*2)
	for _, u := range units {
		out = binary.LittleEndian.AppendUint16(out, u)
	}
	return append(out, 0, 0)
}

// findModule matches by case-insensitive file name suffix.
func findModule(modules []Module, dllPath string) (Module, bool) {
	name := strings.ToLower(baseName(dllPath))
	if name == "" {
		return Module{}, false
	}
	for _, m := range modules {
		p := strings.ToLower(m.Path)
		if p == name || strings.HasSuffix(p, `\`+name) || strings.HasSuffix(p, "/"+name) {
			return m, true
		}
	}
	return Module{}, false
}

// baseName splits on both separators so Windows paths work on any host.
func baseName(path string) string {
	if i := strings.LastIndexAny(path, `\/`); i >= 0 {
		return path[i+1:]
	}
	return path
}

func processExists(pid uint32) bool {
	p, err := ps.FindProcess(int(pid))
	if err != nil {
		return true
	}
	return p != nil
}

// hostMachine is the PE machine type a DLL needs to load into a process of our bitness.
func hostMachine() (uint16, bool) {
	switch runtime.GOARCH {
	case "386":
		return IMAGE_FILE_MACHINE_I386, true
	case "amd64":
		return IMAGE_FILE_MACHINE_AMD64, true
	case "arm64":
		return IMAGE_FILE_MACHINE_ARM64, true
	}
	return 0, false
}

func waitMillis(d time.Duration) uint32 {
	ms := d.Milliseconds()
	if ms >= math.MaxUint32 {
		return math.MaxUint32 - 1
	}
	return uint32(ms)
}
