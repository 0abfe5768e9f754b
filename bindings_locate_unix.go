//go:build darwin || freebsd || linux

package sqlite

import "github.com/ebitengine/purego"

func dlopenLibrary(name string) (uintptr, error) {
	return purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}
