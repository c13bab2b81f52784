// Package usage is the gateway's per-attempt usage ledger.
//
// Every backend attempt, successful or not, becomes one Record carrying the
// backend, token counts, estimated cost, latency and error. A Recorder
// writes records asynchronously through a bounded buffer into a Store:
//
//   - MemoryStore keeps the newest MaxRecords records in memory
//   - SQLiteStore persists to a file with either the pure Go driver
//     ("sqlite", modernc.org/sqlite) or the cgo driver ("sqlite3",
//     github.com/mattn/go-sqlite3)
//
// Stores answer Query(filter) with records newest first, and Summary(filter)
// with per-backend totals.
//
//	recorder, err := usage.NewRecorderFromConfig(cfg.Usage)
//	if err != nil {
//	    return err
//	}
//	defer recorder.Close()
package usage
