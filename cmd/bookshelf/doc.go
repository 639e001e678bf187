// Package main hosts the bookshelf CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into datastore
// operations: seeding yearly Books We Love lists, inspecting and resetting
// records, and driving lookup runs against Readarr. It centralizes
// configuration resolution, output formatting, and structured logging setup
// so subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
