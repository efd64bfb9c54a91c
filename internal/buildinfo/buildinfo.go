// Package buildinfo reports the version stamped into the binary with
// -ldflags "-X dronefeed/internal/buildinfo.Version=...".
package buildinfo

import "runtime/debug"

var (
	Version = "dev"
	Commit  = ""
	BuiltAt = ""
)

// Info returns the stamped build fields. When no commit was stamped the VCS
// revision recorded by the Go toolchain is used instead.
func Info() map[string]string {
	commit, builtAt := Commit, BuiltAt
	if bi, ok := debug.ReadBuildInfo(); ok && commit == "" {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				commit = s.Value
			case "vcs.time":
				if builtAt == "" {
					builtAt = s.Value
				}
			}
		}
	}
	return map[string]string{
		"version": Version,
		"commit":  commit,
		"builtAt": builtAt,
	}
}
