// Package version holds build metadata, overridable at link time.
package version

var (
	Version = "dev"
	Commit  = "none"
)

// Info returns a human-readable version string.
func Info() string {
	return Version + " (" + Commit + ")"
}
