//go:build windows

package sqlite

import "syscall"

func dlopenLibrary(name string) (uintptr, error) {
	handle, err := syscall.LoadLibrary(name)
	if err != nil {
		return 0, err
	}
	return uintptr(handle), nil
}
