// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the run lifecycle: load the interface and
// operations files, build one engine per rank, then either run the stages
// or serve a host controller. It is decoupled from any specific entrypoint
// like a CLI.
package app
