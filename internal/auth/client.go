package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/drewfead/meetlink/internal/logging"
	"github.com/drewfead/meetlink/internal/meeting"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	callbackPath      = "/oauth2callback"
	defaultListenAddr = "127.0.0.1:0"
	shutdownTimeout   = 5 * time.Second

	// DefaultFlowTimeout bounds how long the interactive flow waits for consent.
	DefaultFlowTimeout = 5 * time.Minute
)

// FlowOptions controls the interactive installed-app flow
type FlowOptions struct {
	// ListenAddr is the loopback address of the redirect listener. Port 0 picks a free port.
	ListenAddr string
	// Timeout bounds the wait for the user to complete consent.
	Timeout time.Duration
	// OpenURL directs the user to the consent page.
	OpenURL func(url string) error
	Logger  *slog.Logger
}

func (o FlowOptions) withDefaults() FlowOptions {
	if o.ListenAddr == "" {
		o.ListenAddr = defaultListenAddr
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultFlowTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

type callbackResult struct {
	code string
	err  error
}

// GetTokenFromWeb runs the installed-app flow: it listens on a loopback
// address, sends the user to the consent page and exchanges the returned code.
func GetTokenFromWeb(ctx context.Context, config *oauth2.Config, opts FlowOptions) (*oauth2.Token, error) {
	opts = opts.withDefaults()
	logger := opts.Logger

	ln, err := net.Listen("tcp", opts.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to start local server: %w", meeting.ErrAuth, err)
	}

	// Copy so the caller's config keeps its redirect URL
	cfg := *config
	cfg.RedirectURL = fmt.Sprintf("http://%s%s", ln.Addr().String(), callbackPath)

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	resultCh := make(chan callbackResult, 1)
	deliver := func(r callbackResult) {
		select {
		case resultCh <- r:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("error") != "":
			deliver(callbackResult{err: fmt.Errorf("authorization denied: %s", q.Get("error"))})
			fmt.Fprintf(w, "Authorization failed: %s. You can close this window.", q.Get("error"))
		case q.Get("state") != state:
			deliver(callbackResult{err: errors.New("state mismatch in authorization callback")})
			http.Error(w, "Error: state mismatch", http.StatusBadRequest)
		case q.Get("code") == "":
			deliver(callbackResult{err: errors.New("no authorization code received")})
			http.Error(w, "Error: No authorization code received", http.StatusBadRequest)
		default:
			deliver(callbackResult{code: q.Get("code")})
			fmt.Fprintf(w, "Authorization successful! You can close this window and return to the terminal.")
		}
	})

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			deliver(callbackResult{err: fmt.Errorf("local server failed: %w", err)})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))

	logger.Info("opening browser for authorization")
	logger.Info("if the browser doesn't open automatically, visit this URL", "url", authURL)

	if opts.OpenURL != nil {
		if err := opts.OpenURL(authURL); err != nil {
			logger.Warn("failed to open browser automatically", logging.Err(err))
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	var res callbackResult
	select {
	case res = <-resultCh:
	case <-waitCtx.Done():
		return nil, fmt.Errorf("%w: waiting for authorization: %w", meeting.ErrAuth, waitCtx.Err())
	}
	if res.err != nil {
		return nil, fmt.Errorf("%w: %w", meeting.ErrAuth, res.err)
	}

	tok, err := cfg.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: unable to exchange authorization code: %w", meeting.ErrAuth, err)
	}

	return tok, nil
}
