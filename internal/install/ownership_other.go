//go:build !unix

package install

import "os"

// SetOwner is a no-op on non-unix platforms, which have no POSIX chown
// concept for bob to apply.
func SetOwner(path string) error { return nil }

// CheckOwner is a no-op on non-unix platforms.
func CheckOwner(path string, info os.FileInfo) error { return nil }
