// Package logger provides the structured logging interface used across
// immich-dl.
//
// It wraps zerolog. Console output is human readable and coloured only when
// stdout is a terminal; the json format and any configured log file receive
// one JSON object per line.
//
//	l, err := logger.Initialize(&cfg.Logging, os.Stdout)
//	defer logger.Close()
//	l.WithField("album_id", id).Info("Fetching album " + id + "...")
//
// TestLogger captures messages for assertions in tests; NewNopLogger discards
// everything.
package logger
