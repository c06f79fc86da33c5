// Package constants defines shared constant values.
package constants

// AppName is the project identifier used in logs, metadata and the config directory name.
const AppName = "vintage-story-mod-manager"

// CommandName is the primary CLI command name.
const CommandName = "vsmm"

// ManifestFileName is the manifest every installed package archive carries.
const ManifestFileName = "modinfo.json"

// PackageExtension is the archive extension of installed packages.
const PackageExtension = ".zip"

// TempFilePattern marks in-flight downloads next to their destination.
const TempFilePattern = ".vsmm.*.tmp"
