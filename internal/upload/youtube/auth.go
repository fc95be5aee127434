package youtube

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/benrubinchik/podflow/internal/services"
)

const uploadScope = "https://www.googleapis.com/auth/youtube.upload"

// oauthConfig parses the downloaded client secrets file.
func oauthConfig(secretsPath string) (*oauth2.Config, error) {
	data, err := os.ReadFile(secretsPath)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "upload_youtube", "auth",
			fmt.Sprintf("read client secrets %s", secretsPath), err)
	}
	cfg, err := google.ConfigFromJSON(data, uploadScope)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "upload_youtube", "auth",
			"client secrets file is not a valid OAuth client", err)
	}
	return cfg, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("decode token %s: %w", path, err)
	}
	return &token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	// Tokens grant upload access; keep them private.
	return os.WriteFile(path, data, 0o600)
}

// Client returns an HTTP client authorized for uploads using the cached
// token. Expired access tokens refresh transparently through the token
// source; a missing cache means Authorize must run first.
func Client(ctx context.Context, secretsPath, tokenPath string) (*http.Client, error) {
	cfg, err := oauthConfig(secretsPath)
	if err != nil {
		return nil, err
	}
	token, err := tokenFromFile(tokenPath)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "upload_youtube", "auth",
			fmt.Sprintf("no cached token at %s; run the auth command first", tokenPath), err)
	}
	return oauth2.NewClient(ctx, cfg.TokenSource(ctx, token)), nil
}

// Authorize runs the manual OAuth consent flow: it prints the consent URL,
// reads the resulting code, exchanges it, and caches the token.
func Authorize(ctx context.Context, secretsPath, tokenPath string, in io.Reader, out io.Writer) error {
	cfg, err := oauthConfig(secretsPath)
	if err != nil {
		return err
	}

	url := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Open this URL in a browser and authorize the upload scope:\n\n%s\n\nPaste the code here: ", url)

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return fmt.Errorf("no authorization code provided")
	}
	code := strings.TrimSpace(scanner.Text())
	if code == "" {
		return fmt.Errorf("no authorization code provided")
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "upload_youtube", "auth",
			"authorization code exchange failed", err)
	}
	if err := saveToken(tokenPath, token); err != nil {
		return err
	}
	fmt.Fprintf(out, "Token saved to %s\n", tokenPath)
	return nil
}
