// Package token issues and validates the two credentials that gate
// operations: short-lived single-use launch tokens that authorize one worker
// startup, and longer-lived signed developer tokens that unlock build and
// release operations.
package token
