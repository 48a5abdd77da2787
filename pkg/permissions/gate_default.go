//go:build !darwin

package permissions

// Non-darwin platforms have no accessibility consent flow; global input
// observation either works or fails at hook-installation time.
func platformTrusted() bool { return true }

func platformRequestTrust() {}
