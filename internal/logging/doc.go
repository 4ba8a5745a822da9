// Package logging provides leveled printf-style logging for the disk indexer.
//
// Levels, lowest first: DEBUG, INFO, WARN, ERROR. Fatal always prints and
// exits. The level comes from LOG_LEVEL, or DEBUG=true for debug output, and
// can be replaced at runtime with SetLevel (the CLI quiets INFO this way).
//
// Lines always go to stderr. ConfigureFile tees them into a size-rotated
// file managed by lumberjack, for hosts without a log collector:
//
//	logging.ConfigureFile(logging.FileConfig{Path: "/var/log/disk-indexer.log", Compress: true})
//	defer logging.Close()
package logging
