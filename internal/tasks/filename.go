package tasks

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/desertthunder/glx/internal/shared"
)

// ExtractFilename cuts the archive file name out of a remote filename token.
//
// The name ends at the first occurrence of delim. Without delim the whole token
// is used with surrounding double quotes trimmed. Names that are empty, contain
// a path separator or are a relative directory reference are rejected with
// [shared.ErrInvalidFilename].
func ExtractFilename(token, delim string) (string, error) {
	name := token
	if i := strings.Index(token, delim); delim != "" && i >= 0 {
		name = token[:i]
	} else {
		name = strings.Trim(token, `"`)
	}
	name = strings.TrimSpace(name)

	switch {
	case name == "", name == ".", name == "..":
		return "", fmt.Errorf("%w: %q", shared.ErrInvalidFilename, token)
	case strings.ContainsAny(name, `/\`), name != filepath.Base(name):
		return "", fmt.Errorf("%w: %q is not a plain file name", shared.ErrInvalidFilename, name)
	}
	return name, nil
}
