// Package log provides harvester's slog setup.
//
// Everything is built on the standard slog package:
//   - RedactingHandler masks credentials and collected item values
//   - NewLogger picks the level and output format
//   - NewFileWriter rotates log files with lumberjack
//
// Collected items are personal data (email addresses, phone numbers), so
// they are masked even in verbose mode. Counts are logged instead.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose, log.WithLevel(slog.LevelInfo))
//	slog.SetDefault(logger)
//
//	logger.Info("items collected",
//	    "added", 2,             // logged as is
//	    "items", []string{...}, // masked
//	)
package log
