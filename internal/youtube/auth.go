package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	yt "google.golang.org/api/youtube/v3"

	"ytupload/internal/logging"
)

// Scopes are the OAuth2 scopes needed to list playlists, upload videos and
// add them to playlists.
var Scopes = []string{
	yt.YoutubeReadonlyScope,
	yt.YoutubeUploadScope,
	yt.YoutubeScope,
}

// AuthConfig locates the OAuth2 client secrets and the stored token.
type AuthConfig struct {
	// ClientSecretsFile is the client secrets JSON downloaded from the
	// Google Cloud console.
	ClientSecretsFile string
	// CredentialsFile caches the user's token between runs.
	CredentialsFile string
	// InsecureSkipVerify disables TLS certificate validation.
	InsecureSkipVerify bool
	// Interactive allows running the browser consent flow when no usable
	// token is stored.
	Interactive bool
	// Prompt receives the consent URL. Defaults to stderr.
	Prompt io.Writer
	Logger *zap.Logger
}

// Authorize returns an HTTP client that carries the user's OAuth2 token.
//
// A token stored in CredentialsFile is reused and refreshed as needed; every
// refreshed token is written back. When no token is stored and Interactive
// is set, a loopback consent flow is run: the consent URL is printed and the
// authorization code is received on a local listener.
func Authorize(ctx context.Context, cfg AuthConfig) (*http.Client, error) {
	logger := logging.OrNop(cfg.Logger)

	secrets, err := os.ReadFile(cfg.ClientSecretsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: read client secrets: %v", ErrAuthorization, err)
	}
	oauthCfg, err := google.ConfigFromJSON(secrets, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: parse client secrets: %v", ErrAuthorization, err)
	}

	tc := DefaultTransportConfig()
	tc.InsecureSkipVerify = cfg.InsecureSkipVerify
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: NewTransport(tc)})

	token, err := LoadToken(cfg.CredentialsFile)
	if errors.Is(err, ErrNoCredentials) {
		if !cfg.Interactive {
			return nil, err
		}
		token, err = consent(ctx, oauthCfg, cfg.Prompt, logger)
		if err != nil {
			return nil, err
		}
		if err := SaveToken(cfg.CredentialsFile, token); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	src := &persistingSource{
		base:   oauthCfg.TokenSource(ctx, token),
		path:   cfg.CredentialsFile,
		last:   token,
		logger: logger,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, src)), nil
}

// consent runs the loopback authorization code flow.
func consent(ctx context.Context, cfg *oauth2.Config, prompt io.Writer, logger *zap.Logger) (*oauth2.Token, error) {
	if prompt == nil {
		prompt = os.Stderr
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("%w: listen for redirect: %v", ErrAuthorization, err)
	}
	defer listener.Close()

	redirect := *cfg
	redirect.RedirectURL = fmt.Sprintf("http://%s/", listener.Addr().String())
	state := uuid.NewString()

	type result struct {
		code string
		err  error
	}
	results := make(chan result, 1)
	var once sync.Once
	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		res := result{code: q.Get("code")}
		switch {
		case q.Get("state") != state:
			res.err = fmt.Errorf("%w: state mismatch", ErrAuthorization)
		case q.Get("error") != "":
			res.err = fmt.Errorf("%w: %s", ErrAuthorization, q.Get("error"))
		case res.code == "":
			res.err = fmt.Errorf("%w: no authorization code", ErrAuthorization)
		}
		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
		} else {
			fmt.Fprintln(w, "Authorization complete, you may close this window.")
		}
		// The server is closed as soon as the result is taken.
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		once.Do(func() { results <- res })
	})}
	go server.Serve(listener)
	defer server.Close()

	url := redirect.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintf(prompt, "Open the following link in your browser to authorize access:\n\n%s\n\n", url)
	logger.Info("waiting for authorization", zap.String("redirect", redirect.RedirectURL))

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		token, err := redirect.Exchange(ctx, res.code)
		if err != nil {
			return nil, fmt.Errorf("%w: exchange code: %v", ErrAuthorization, err)
		}
		return token, nil
	}
}

// LoadToken reads a token saved by SaveToken. A missing or empty file
// returns ErrNoCredentials.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(data) == 0) {
		return nil, ErrNoCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("%w: parse credentials %s: %v", ErrAuthorization, path, err)
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, ErrNoCredentials
	}
	return &token, nil
}

// SaveToken writes token to path with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create credentials dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// persistingSource writes refreshed tokens back to the credentials file.
type persistingSource struct {
	base   oauth2.TokenSource
	path   string
	logger *zap.Logger

	mu   sync.Mutex
	last *oauth2.Token
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthorization, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || s.last.AccessToken != token.AccessToken {
		if err := SaveToken(s.path, token); err != nil {
			s.logger.Warn("unable to store refreshed token", zap.Error(err))
		}
		s.last = token
	}
	return token, nil
}
