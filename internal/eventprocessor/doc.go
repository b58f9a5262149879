// Package eventprocessor routes decoded trace lines to the process tree.
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│      strace output lines                │
//	└─────────────────┬───────────────────────┘
//	                  │
//	                  ▼
//	┌─────────────────────────────────────────┐
//	│   eventprocessor                        │  ← Line routing
//	│   - Records raw lines (optional)        │
//	│   - Observes every timestamp            │
//	│   - Decodes via traceline.Decoder       │
//	│   - Routes by event kind                │
//	└─────────┬───────────────────────────────┘
//	          │
//	          ├──→ KindSpawned ────→ ProcessHandler.Spawn
//	          ├──→ KindExecuted ───→ ProcessHandler.Exec
//	          ├──→ KindExited ─────→ ProcessHandler.Exit
//	          ├──→ KindIgnored ────→ counted
//	          └──→ KindUnrecognized → counted + logged, never fatal
//
// Protocol violations from the decoder or the handler end the session
// unless the processor runs in keep-going mode, where the offending line
// is logged, counted as skipped and dropped.
package eventprocessor
