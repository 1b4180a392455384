// Package heron maps the import chains of MSBuild project files.
package heron

// Version is the current Heron release.
const Version = "0.1.0"
