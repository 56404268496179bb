//go:build windows

package neuroshare

import (
	"os"
	"path/filepath"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/windows"
)

func openLibrary(path string) (uintptr, error) {
	// The vendor DLL resolves its companion DLLs through PATH, so the
	// library directory must be prepended before LoadLibrary runs.
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		os.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}

	h, err := windows.LoadLibrary(path)
	if err != nil {
		return 0, err
	}
	return uintptr(h), nil
}

func registerFunc(fptr any, handle uintptr, name string) {
	purego.RegisterLibFunc(fptr, handle, name)
}
