// Package pipeline runs the scrape stages of one session in sequence.
//
// A session moves through six steps: folder initialization, index fetch,
// index parse, result-page fetch, result-page parse and download. Each step
// is a Step that reads its input from the session cache, writes its output
// back to it, and records counts in the shared model.SessionReport.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. Every stage gets the same logging and cancellation handling
// 2. Stages stay independently testable against a memory filesystem
// 3. The report is filled in as stages finish, so a failed run still says
// how far it got
package pipeline
