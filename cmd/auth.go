package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/livesync/internal/auth"
	"github.com/desertthunder/livesync/internal/server"
	"github.com/desertthunder/livesync/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthLogin runs the OAuth2 authorization code flow against Google.
//
// Starts a temporary local server for the callback, opens the consent page
// in a browser, and prints the refresh token to store in config.toml.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	config, err := r.resolveConfig(cmd)
	if err != nil {
		return err
	}

	yt := config.Credentials.YouTube
	if yt.ClientID == "" || yt.ClientSecret == "" {
		return fmt.Errorf("%w: youtube client_id and client_secret are required", shared.ErrInvalidConfig)
	}

	oauthConfig := auth.NewConfig(yt)
	state := shared.GenerateID()

	handler := server.NewOAuthHandler(oauthConfig, state)
	router := server.NewBasicRouter()
	router.Handler(handler)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}
	go srv.ListenAndServe()
	defer srv.Shutdown(context.Background())

	// access_type=offline with forced approval is what yields a refresh token.
	authURL := oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	r.logger.Info("waiting for authorization", "callback", yt.RedirectURI)

	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL to authorize:\n\n%s\n\n", authURL)
	} else {
		r.writePlain("Opening browser for authorization...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warn("failed to open browser", "err", err)
			r.writePlain("Open this URL to authorize:\n\n%s\n\n", authURL)
		}
	}

	select {
	case result := <-handler.Result():
		if result.Error() != nil {
			return fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Error())
		}

		if result.Token.RefreshToken == "" {
			return fmt.Errorf("%w: no refresh token in response, revoke the app's access and retry", shared.ErrAuthFailed)
		}

		r.writePlain("✓ Authorization successful\n\n")
		r.writePlain("Add this to the [credentials.youtube] section of config.toml:\n\n")
		r.writePlain("refresh_token = %q\n", result.Token.RefreshToken)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AuthURL prints the authorization URL without starting the callback server.
func (r *Runner) AuthURL(ctx context.Context, cmd *cli.Command) error {
	config, err := r.resolveConfig(cmd)
	if err != nil {
		return err
	}

	yt := config.Credentials.YouTube
	if yt.ClientID == "" || yt.ClientSecret == "" {
		return fmt.Errorf("%w: youtube client_id and client_secret are required", shared.ErrInvalidConfig)
	}

	oauthConfig := auth.NewConfig(yt)
	authURL := oauthConfig.AuthCodeURL(shared.GenerateID(), oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	return r.writePlain("%s\n", authURL)
}
