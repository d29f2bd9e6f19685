package injector

import (
	"strings"

	"github.com/pkg/errors"
	peparser "github.com/saferwall/pe"
)

const (
	IMAGE_FILE_MACHINE_I386  = 0x014c
	IMAGE_FILE_MACHINE_AMD64 = 0x8664
	IMAGE_FILE_MACHINE_ARM64 = 0xaa64
)

const maxForwardDepth = 4

// ImageMachine returns the machine type from the file header of the PE at path.
func ImageMachine(path string) (uint16, error) {
	pe, err := peparser.New(path, &peparser.Options{})
	if err != nil {
		return 0, errors.Wrap(err, "open pe error")
	}
	defer pe.Close()
	if err = pe.Parse(); err != nil {
		return 0, errors.Wrap(err, "parse pe error")
	}
	return uint16(pe.NtHeader.FileHeader.Machine), nil
}

// Export is one named entry of a PE export table.
type Export struct {
	RVA       uint32
	Forwarder string
}

// ExportResolver resolves an export from the target's own module list: the module's
// base address in the target plus the export RVA read from the module file on disk.
// Forwarded exports ("NTDLL.RtlFoo") are followed.
type ExportResolver struct {
	// Exports loads the named exports of the PE at path. Nil means parse it with saferwall/pe.
	Exports func(path string) (map[string]Export, error)
}

func (r *ExportResolver) Resolve(t Target, module, symbol string) (uintptr, error) {
	modules, err := t.Modules()
	if err != nil {
		return 0, errors.Wrap(err, "enum process modules")
	}
	return r.resolve(modules, module, symbol, 0)
}

func (r *ExportResolver) resolve(modules []Module, module, symbol string, depth int) (uintptr, error) {
	if depth > maxForwardDepth {
		return 0, errors.Errorf("forwarder chain too deep at %s!%s", module, symbol)
	}
	var mod *Module
	for i := range modules {
		if strings.EqualFold(baseName(modules[i].Path), module) {
			mod = &modules[i]
			break
		}
	}
	if mod == nil {
		return 0, errors.Errorf("module %s not loaded in target", module)
	}
	load := r.Exports
	if load == nil {
		load = peExports
	}
	exports, err := load(mod.Path)
	if err != nil {
		return 0, errors.WithMessagef(err, "exports of %s", mod.Path)
	}
	e, ok := exports[symbol]
	if !ok {
		return 0, errors.Errorf("%s!%s not exported", module, symbol)
	}
	if e.Forwarder != "" {
		target := strings.SplitN(e.Forwarder, ".", 2)
		if len(target) != 2 || strings.HasPrefix(target[1], "#") {
			return 0, errors.Errorf("unsupported forwarder %q", e.Forwarder)
		}
		return r.resolve(modules, target[0]+".dll", target[1], depth+1)
	}
	return mod.Base + uintptr(e.RVA), nil
}

func peExports(path string) (map[string]Export, error) {
	pe, err := peparser.New(path, &peparser.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "open pe error")
	}
	defer pe.Close()
	if err = pe.Parse(); err != nil {
		return nil, errors.Wrap(err, "parse pe error")
	}
	exports := make(map[string]Export, len(pe.Export.Functions))
	for _, f := range pe.Export.Functions {
		if f.Name == "" {
			continue
		}
		exports[f.Name] = Export{RVA: f.FunctionRVA, Forwarder: f.Forwarder}
	}
	return exports, nil
}
