// Package logger provides structured logging for gatekeep.
//
// Loggers are built on log/slog. Every handler passes attributes through a
// redaction step, so passwords, session secrets, provider keys and signed
// session tokens never reach the output in the clear. The level is shared
// by all loggers and may be changed at runtime with SetLevel.
//
// File output is rotated by lumberjack; see NewFileWriter.
package logger
