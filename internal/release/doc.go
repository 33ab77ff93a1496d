// Package release queries the GitHub release channel for published versions,
// selects platform assets, and downloads artifacts with integrity checks.
// Network access is bounded: every request cycle retries with exponential
// backoff up to a fixed elapsed time, then surfaces a typed failure.
package release
