//go:build !(linux || darwin || freebsd || windows)

package neuroshare

import "errors"

func openLibrary(path string) (uintptr, error) {
	return 0, errors.New("native library loading is not supported on this platform")
}

func registerFunc(fptr any, handle uintptr, name string) {}
