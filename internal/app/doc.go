// Package app contains the core application logic: it loads an HCL model,
// compiles it with the configured numeric backend and environment, and
// prints the outputs computed over an HCL inputs file. It is decoupled
// from any specific entrypoint like a CLI.
package app
