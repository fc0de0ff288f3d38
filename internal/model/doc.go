// Package model defines the core data structures shared across audiophile.
//
// This package contains the following main types:
//   - QueryType: Selects which listing of the site is scraped (search or tags)
//   - Target: A URL paired with its 1-based row in a cached URL list
//   - Artifact: A downloaded audio file and where it came from
//   - SessionReport: The accumulated result of one scraping session
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The crawler, download, pipeline, database and report packages
// all exchange these types.
package model
