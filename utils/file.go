package utils

import (
	"os"

	"go.viam.com/utils"
)

// RemoveFileNoError will remove the file at the given path if it exists. Any errors will be
// suppressed.
func RemoveFileNoError(path string) {
	utils.UncheckedErrorFunc(func() error {
		if _, err := os.Stat(path); err == nil {
			return os.Remove(path)
		}
		return nil
	})
}
