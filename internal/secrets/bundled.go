package secrets

// Bundled ciphertexts, produced with `devmanager secret encrypt`. Values are
// base64url strings bound to the current application identifier; an empty
// value means the secret is not shipped in this build and callers fall back
// to the configured or environment source.
const (
	// NameGitHubToken is the release-channel access credential.
	NameGitHubToken = "github_token"

	// NameConfigData is an optional encrypted configuration blob.
	NameConfigData = "config_data"
)

func bundled() map[string]string {
	return map[string]string{
		NameGitHubToken: encryptedGitHubToken,
		NameConfigData:  encryptedConfigData,
	}
}

// To update these values run:
//
//	devmanager secret encrypt --name github_token
//
// and paste the output here before building a release.
const (
	encryptedGitHubToken = ""
	encryptedConfigData  = ""
)
