// Package misc keeps build time identification of the program.
package misc

// Set by the linker: -X importmore/misc.version=... -X importmore/misc.githash=...
var (
	version = "dev"
	githash = "unknown"
)

const appName = "importmore"

// GetAppName returns name used for logs, temporary files and reports.
func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return githash
}
