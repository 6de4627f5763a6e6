// Package logger provides structured logging for greetsend on top of zerolog.
//
// Console output is colored and goes to stderr. When logging.file is set,
// every line is also appended to that file.
//
//	logger.Initialize(&cfg.Logging)
//	logger.WithField("contacts", "contacts.csv").Info("Loading contacts")
//
// Domain helpers such as LogSend and LogRunSummary keep field names
// consistent between the campaign runner and the CLI. Tests use
// NewTestLogger to capture and assert on log calls, or NewNopLogger to
// discard them.
package logger
