package snapshot

// Package snapshot persists the previous run's reduced view of every tracked
// record, used as the diff baseline.
//
// Drivers:
//   - "file": single JSON document (the original last_state.json contract)
//   - "sqlite": one row per key
//
// An absent or unparsable store always loads as an empty snapshot; it is
// never fatal to a run.
