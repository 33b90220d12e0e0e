/*
Package log provides structured logging for syncstorage using zerolog.

The log package wraps zerolog to give every component JSON-structured
logging with contextual fields (user, collection, batch id) and a single
global level/format switch set once at process start.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - zerolog instance                         │          │
	│  │  - initialized via log.Init()               │          │
	│  │  - safe for concurrent use                   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Context Loggers                   │          │
	│  │  - WithUserID(userID)                       │          │
	│  │  - WithCollection(collection)                │          │
	│  │  - WithBatchID(batchID)                     │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	log.Info("storage pool ready")

	logger := log.WithUserID(42)
	logger.Info().Str("collection", "bookmarks").Msg("put_bso")

Errors that should be reported to the error-tracking sink go through
pkg/report instead of this package; log is for operational visibility,
not incident tracking.
*/
package log
