// Package version holds the module version consulted by the store migrator.
package version

// Version is the current schema/module version.
var Version = "0.3.1"
