package google

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
)

// OAuthConfig returns the OAuth2 configuration for the Gmail API.
// Client credentials come from the environment so deployments can use their
// own OAuth application.
func OAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     os.Getenv("RENEWLY_GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("RENEWLY_GOOGLE_CLIENT_SECRET"),
		Endpoint:     google.Endpoint,
		Scopes: []string{
			gmail.GmailReadonlyScope, // scanning only reads message metadata
		},
	}
}

// HasToken checks if a cached OAuth token exists for CLI usage.
func HasToken() bool {
	_, err := os.ReadFile(tokenFile())
	return err == nil
}

// SaveToken writes the token pair to the CLI cache file.
func SaveToken(token *oauth2.Token) error {
	dir := filepath.Dir(tokenFile())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data := token.AccessToken + " " + token.RefreshToken
	if err := os.WriteFile(tokenFile(), []byte(data), 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// LoadToken reads the cached token pair for CLI usage. The access token is
// marked as already expired so the Guard refreshes it before use.
func LoadToken() (*oauth2.Token, error) {
	slurp, err := os.ReadFile(tokenFile())
	if err != nil {
		return nil, fmt.Errorf("no cached Google OAuth token found")
	}

	f := strings.Fields(strings.TrimSpace(string(slurp)))
	if len(f) != 2 {
		return nil, fmt.Errorf("invalid token format")
	}

	return &oauth2.Token{
		AccessToken:  f[0],
		TokenType:    "Bearer",
		RefreshToken: f[1],
		Expiry:       time.Unix(1, 0),
	}, nil
}

func tokenFile() string {
	return filepath.Join(userCacheDir(), "renewly", "google.token")
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}
