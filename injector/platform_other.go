//go:build !windows

package injector

import "github.com/pkg/errors"

var errUnsupported = errors.New("process injection is only supported on windows")

func defaultOpener() Opener     { return unsupported{} }
func defaultHost() Host         { return unsupported{} }
func defaultResolver() Resolver { return &ExportResolver{} }

type unsupported struct{}

func (unsupported) Open(uint32) (Target, error) {
	return nil, errUnsupported
}

func (unsupported) IsEmulated() (bool, error) {
	return false, errUnsupported
}
