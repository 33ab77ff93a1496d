package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// TokenSource resolves the release-channel credential through the fallback
// chain: bundled encrypted secret, then a user-configured encrypted secret
// file, then the environment. Each step is independent and optional.
type TokenSource struct {
	store     *Store
	configDir string
	envVars   []string
}

// NewTokenSource builds the default chain over the given store and config
// directory.
func NewTokenSource(store *Store, configDir string) *TokenSource {
	return &TokenSource{
		store:     store,
		configDir: configDir,
		envVars:   []string{"GITHUB_TOKEN", "GH_TOKEN"},
	}
}

// secretFileName holds the user-configured encrypted credential, written by
// `devmanager secret set`. Same cipher, same derived key as bundled secrets.
const secretFileName = "github_token.enc"

// GitHubToken returns the first credential the chain yields, or empty string
// when no source has one. Absence is not an error: unauthenticated API access
// still works within rate limits.
func (ts *TokenSource) GitHubToken() string {
	// 1. Bundled encrypted constants (highest priority).
	if token, err := ts.store.Get(NameGitHubToken); err == nil && token != "" {
		log.Debug("using release-channel token from bundled secrets")
		return token
	} else if err != nil && !errors.Is(err, ErrSecretUnavailable) {
		log.Warnf("bundled token lookup: %v", err)
	}

	// 2. User-configured encrypted secret file.
	if token := ts.configuredToken(); token != "" {
		log.Debug("using release-channel token from config directory")
		return token
	}

	// 3. Environment (lowest priority).
	for _, name := range ts.envVars {
		if token := strings.TrimSpace(os.Getenv(name)); token != "" {
			log.Debugf("using release-channel token from %s", name)
			return token
		}
	}

	log.Debug("no release-channel token found in any source")
	return ""
}

func (ts *TokenSource) configuredToken() string {
	if ts.configDir == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(ts.configDir, secretFileName))
	if err != nil {
		return ""
	}
	token, err := Open(ts.store.key, strings.TrimSpace(string(data)))
	if err != nil {
		log.Warnf("configured token file is unreadable: %v", err)
		return ""
	}
	return token
}

// SaveConfiguredToken encrypts and writes the user-configured credential file.
func (ts *TokenSource) SaveConfiguredToken(token string) error {
	sealed, err := Seal(ts.store.key, token)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(ts.configDir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(ts.configDir, secretFileName), []byte(sealed), 0o600)
}
