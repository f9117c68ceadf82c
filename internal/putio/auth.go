package putio

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"

	"github.com/tonimelisma/putiodown/internal/tokenfile"
)

// DefaultClientID is the put.io application registered for putiodown.
const DefaultClientID = "2473"

// appTokenURLFormat is the put.io page that shows an OAuth token for an
// application to a signed-in user, ready to be copied.
const appTokenURLFormat = "https://put.io/v2/oauth2/apptoken/%s"

// put.io access tokens are sent with the "token" authorization scheme.
const tokenType = "token"

// Token file metadata keys.
const (
	MetaUsername = "username"
	MetaEmail    = "email"
)

// AppTokenURL returns the page the user visits to obtain a token for
// clientID.
func AppTokenURL(clientID string) string {
	return fmt.Sprintf(appTokenURLFormat, clientID)
}

// StaticToken returns a TokenSource for a token obtained out of band,
// e.g. from the environment or a login prompt.
func StaticToken(accessToken string) TokenSource {
	return &tokenBridge{
		src:    oauth2.StaticTokenSource(newToken(accessToken)),
		logger: slog.Default(),
	}
}

// TokenSourceFromPath loads a saved token. Returns ErrNotLoggedIn if no
// token file exists at the path. put.io tokens do not expire, so no refresh
// is configured.
func TokenSourceFromPath(tokenPath string, logger *slog.Logger) (TokenSource, error) {
	tok, meta, err := tokenfile.Load(tokenPath)
	if err != nil {
		return nil, err
	}

	if tok == nil {
		return nil, ErrNotLoggedIn
	}

	logger.Info("loaded saved token",
		slog.String("path", tokenPath),
		slog.String("username", meta[MetaUsername]),
	)

	return &tokenBridge{src: oauth2.StaticTokenSource(tok), logger: logger}, nil
}

// SaveToken persists accessToken with optional metadata (username, email).
func SaveToken(tokenPath, accessToken string, meta map[string]string) error {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return errors.New("putio: empty token")
	}

	if err := tokenfile.Save(tokenPath, newToken(accessToken), meta); err != nil {
		return fmt.Errorf("putio: saving token: %w", err)
	}

	return nil
}

// Logout removes the saved token file. A missing file is not an error.
func Logout(tokenPath string, logger *slog.Logger) error {
	err := os.Remove(tokenPath)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("logout: no token file to remove", slog.String("path", tokenPath))
		return nil
	}

	if err != nil {
		return fmt.Errorf("putio: removing token: %w", err)
	}

	logger.Info("logout: removed token file", slog.String("path", tokenPath))

	return nil
}

func newToken(accessToken string) *oauth2.Token {
	return &oauth2.Token{AccessToken: accessToken, TokenType: tokenType}
}

// tokenBridge adapts oauth2.TokenSource to putio.TokenSource.
type tokenBridge struct {
	src    oauth2.TokenSource
	logger *slog.Logger
}

func (b *tokenBridge) Token() (string, error) {
	t, err := b.src.Token()
	if err != nil {
		b.logger.Warn("token acquisition failed", slog.String("error", err.Error()))
		return "", fmt.Errorf("putio: obtaining token: %w", err)
	}

	if !t.Valid() {
		return "", ErrNotLoggedIn
	}

	return t.AccessToken, nil
}
