// Package report writes the JSON summary of a send run.
//
// A report holds a random run ID, the start and finish times, the run
// counters and one outcome per contact row, including rejected rows and
// contacts that were never attempted because the run was interrupted.
// Reports are written once, atomically, and are never read back by the
// program.
//
// With the path "auto" reports are stored in the data directory:
//   - Linux: ~/.local/share/greetsend/reports/
//   - macOS: ~/Library/Application Support/greetsend/reports/
//   - Windows: %APPDATA%/greetsend/reports/
package report
