// Package cli parses the opgrid command line, validates user input and
// carries process exit codes. It translates flags into app.Config.
package cli
