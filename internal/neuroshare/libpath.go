package neuroshare

import (
	"os"
	"path/filepath"
)

// libraryNames returns the conventional library filenames for goos, in
// probe order.
func libraryNames(goos string) []string {
	switch goos {
	case "windows":
		return []string{"nsMCDLibrary64.dll", "nsMCDLibrary.dll"}
	case "darwin":
		return []string{"nsMCDLibrary.dylib"}
	default:
		return []string{"nsMCDLibrary.so"}
	}
}

// DefaultSearchDirs returns the conventional install locations probed
// when no explicit library path is given: the working directory, the
// directory of the running executable, and the system library dirs.
func DefaultSearchDirs() []string {
	dirs := make([]string, 0, 4)
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	return append(dirs, "/usr/local/lib", "/usr/lib")
}

// LocateLibrary resolves the path of the native library. An explicit path
// that exists wins; a missing explicit path falls through to the probe.
// Each dir is probed for the platform filenames in order. When nothing
// matches it returns ErrLibraryNotFound; callers may then fall back to
// the process linker's own resolution.
func LocateLibrary(explicit, goos string, dirs []string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
	}

	names := libraryNames(goos)
	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
	}

	return "", ErrLibraryNotFound
}
