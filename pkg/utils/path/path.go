package path

import (
	"os"
	"path/filepath"
	"strings"
)

const tilde = "~" + string(filepath.Separator)

// return absolute representation of path, with expanding "~" to user's home directory.
//
// args:
//   - pathstring: path to be resolved
//
// return:
//   - string: resolved filepath
//   - error
func Resolve(pathstring string) (string, error) {
	return ResolveFrom("", pathstring)
}

// ResolveFrom resolves pathstring like Resolve, but relative paths are based on base.
//
// When base is empty, the working directory is used.
func ResolveFrom(base string, pathstring string) (string, error) {
	if strings.HasPrefix(pathstring, tilde) {
		homedir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		pathstring = filepath.Join(homedir, pathstring[2:])
	}
	if base != "" && !filepath.IsAbs(pathstring) {
		pathstring = filepath.Join(base, pathstring)
	}
	return filepath.Abs(pathstring)
}

// SearchUpward looks for fileName in dir and its ancestors.
//
// It returns the path of the nearest one, or false if nothing found.
func SearchUpward(dir string, fileName string) (string, bool) {
	for {
		candidate := filepath.Join(dir, fileName)
		if s, err := os.Stat(candidate); err == nil && s.Mode().IsRegular() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
