// Package database provides the SQLite download manifest for audiophile.
//
// The manifest records, for every scrape session:
//   - the query, stage counts and outcome of the session
//   - every audio file written, with its source row, size and SHA-256
//
// The cache folders hold the files; the manifest answers "what did I already
// download, from where, and when" across sessions and queries without walking
// the data directory.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
