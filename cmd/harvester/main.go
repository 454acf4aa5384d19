// Package main provides the entry point for the harvester CLI.
//
// harvester collects strings matching user-defined regular expressions
// from the pages a browser visits. It runs a local HTTP API that a browser
// extension talks to, and can also scan pages on demand.
//
// Usage:
//
//	harvester serve
//	harvester scan <url>...
//	harvester export --json
//
// See --help for all available options.
package main

// main is the entry point for harvester.
func main() {
	Execute()
}
