// Package shutdown runs cleanup hooks when the process is asked to stop.
//
// The server registers hooks in start-up order (archive, HTTP listener,
// config watcher, log file) and Handler runs them in reverse once SIGINT
// or SIGTERM arrives, or when Trigger is called. All hooks share one
// deadline.
package shutdown
