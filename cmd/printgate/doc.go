// Package printgate provides the command-line interface for printgate. It
// configures the subcommands (check, persist, aggregate, upload-images,
// readme, ...), parses flags and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/printgate/printgate/cmd/printgate"
//	func main() { printgate.Execute() }
package printgate
