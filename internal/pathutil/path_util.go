// Package pathutil resolves the "~" shorthand portage config files
// sometimes use in a `source` directive's path argument.
package pathutil

import (
	"os"
	"os/user"
	"strings"
)

// ReplaceTildeWithHome replaces the tilde character at the beginning of a path
// with the appropriate home directory.
func ReplaceTildeWithHome(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		firstSlash := strings.Index(path, "/")
		if firstSlash == 1 {
			home, err := os.UserHomeDir()
			if err != nil {
				return path, err
			}
			return strings.Replace(path, "~", home, 1), nil
		} else if firstSlash > 1 {
			username := path[1:firstSlash]
			userAccount, err := user.Lookup(username)
			if err != nil {
				return path, err
			}
			return strings.Replace(path, path[:firstSlash], userAccount.HomeDir, 1), nil
		}
	}

	return path, nil
}
