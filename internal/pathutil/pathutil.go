// Package pathutil canonicalizes user-supplied paths so that two
// spellings of the same location always compare equal.
package pathutil

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	winVarPattern   = regexp.MustCompile(`%[^%]+%`)
	posixVarPattern = regexp.MustCompile(`\$\{[A-Za-z_][A-Za-z0-9_]*\}|\$[A-Za-z_][A-Za-z0-9_]*`)
)

// Expand resolves a user-home prefix and environment-variable references
// in raw, then normalizes separators. Both %NAME% and $NAME / ${NAME}
// spellings are recognized; references to unset variables are kept
// verbatim rather than replaced with an empty string.
//
// Expand is a pure string transform: it never touches the filesystem and
// does not require the path to exist.
func Expand(raw string) string {
	p := expandHome(raw)
	p = expandVars(p)
	return filepath.Clean(filepath.FromSlash(p))
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	return home + path[1:]
}

func expandVars(path string) string {
	path = winVarPattern.ReplaceAllStringFunc(path, func(ref string) string {
		name := ref[1 : len(ref)-1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return ref
	})
	return posixVarPattern.ReplaceAllStringFunc(path, func(ref string) string {
		name := strings.TrimPrefix(ref, "$")
		name = strings.TrimPrefix(strings.TrimSuffix(name, "}"), "{")
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return ref
	})
}
