// Package config provides configuration structures and utilities for audiophile.
//
// Two kinds of configuration exist:
//   - Config holds runtime options populated from CLI flags (timeouts,
//     concurrency, data directory, output preferences).
//   - Session holds what to scrape, loaded from a JSON session file
//     (query, query type, page count, allowed formats, auth cookies).
package config
