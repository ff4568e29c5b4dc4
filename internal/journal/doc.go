// Package journal records webhook delivery attempts.
//
// It is an audit trail for operators, not a retry buffer: entries describe
// batches that were already sent, dropped, or deferred, and pending embeds
// never live here. Supported drivers: a dependency-free jsonl file backend
// and an optional SQLite backend (build tag "sqlite").
package journal
