package cmd

// VersionInfo holds build information injected at build time
type VersionInfo struct {
	Commit    string
	Date      string
	GoVersion string
	Tagline   string
	Version   string
}

var versionInfo = VersionInfo{Version: "dev"}

// SetVersionInfo sets the build information reported by commands
func SetVersionInfo(info VersionInfo) {
	versionInfo = info
}
