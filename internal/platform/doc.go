// Package platform provides cross-platform filesystem operations used by
// the update and handoff paths. On Unix it uses chmod directly; on Windows,
// where Unix permission bits do not exist, the operations degrade to no-ops.
package platform
