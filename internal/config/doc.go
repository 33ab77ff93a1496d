// Package config manages user-level settings stored at ~/.devmanager/config.yaml.
// It provides functions to load, read, and write configuration keys, resolves
// the install directory shared with the handoff executor, and bootstraps the
// rotating log file.
package config
