// Package logger provides a small wrapper around zap to offer:
//   - a global sugared console logger writing progress to stdout and errors to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - level configuration and parsing utilities,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// Services accept a context and extract the logger from it, so every message
// of a build target carries the target name.
package logger
