package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/githubauth/internal/app"
	"github.com/dropDatabas3/githubauth/internal/http/handlers"
	"github.com/dropDatabas3/githubauth/internal/identity"
	"github.com/dropDatabas3/githubauth/internal/oauth/github"
	"github.com/dropDatabas3/githubauth/internal/security/secretbox"
	"github.com/dropDatabas3/githubauth/internal/users"
	"github.com/dropDatabas3/githubauth/internal/util"
)

func newCheckConfigCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration and print the effective GitHub settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			gh, err := cfg.GitHubSettings().ProviderConfig()
			if err != nil {
				return err
			}
			ep := github.NewEndpoints(gh)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "env:           %s\n", cfg.App.Env)
			fmt.Fprintf(out, "github:        enabled=%t client_id=%s\n", gh.Enabled, util.MaskSecret(gh.ClientID))
			fmt.Fprintf(out, "authorize:     %s\n", ep.Authorize)
			fmt.Fprintf(out, "token:         %s\n", ep.Token)
			fmt.Fprintf(out, "profile:       %s\n", ep.Profile)
			fmt.Fprintf(out, "callback:      %s%s\n", strings.TrimRight(cfg.Server.PublicURL, "/"), handlers.CallbackPath)
			fmt.Fprintf(out, "state store:   %s\n", cfg.State.Store)
			fmt.Fprintf(out, "users driver:  %s\n", cfg.Users.Driver)
			return nil
		},
	}
}

func newAuthorizeURLCmd(load loadFunc) *cobra.Command {
	var state, redirectURI string
	cmd := &cobra.Command{
		Use:   "authorize-url",
		Short: "Print the GitHub authorize URL for a given state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			gh, err := cfg.GitHubSettings().ProviderConfig()
			if err != nil {
				return err
			}
			if redirectURI == "" {
				redirectURI = strings.TrimRight(cfg.Server.PublicURL, "/") + handlers.CallbackPath
			}
			fmt.Fprintln(cmd.OutOrStdout(), github.AuthCodeURL(gh, state, redirectURI))
			return nil
		},
	}
	cmd.Flags().StringVar(&state, "state", "", "state parameter (required)")
	cmd.Flags().StringVar(&redirectURI, "redirect-uri", "", "callback URL (default: server.public_url + callback path)")
	_ = cmd.MarkFlagRequired("state")
	return cmd
}

func newEncryptSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt-secret <plain>",
		Short: "Encrypt a value for config files using " + secretbox.EnvMasterKey,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := os.Getenv(secretbox.EnvMasterKey)
			if raw == "" {
				return errors.New(secretbox.EnvMasterKey + " not set")
			}
			key, err := secretbox.ParseKey(raw)
			if err != nil {
				return err
			}
			enc, err := secretbox.Encrypt(key, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), enc)
			return nil
		},
	}
}

func newUserCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "user <login>",
		Short: "Show a signed-in GitHub user from the users registry",
		Long:  "Looks up a user by local login (octocat or octocat@github). Only meaningful with users.driver=postgres.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			login := strings.TrimSpace(args[0])
			if !strings.HasSuffix(login, identity.LoginSuffix) {
				login += identity.LoginSuffix
			}
			u, err := a.Users.Get(cmd.Context(), login)
			if errors.Is(err, users.ErrNotFound) {
				return fmt.Errorf("user %s not found", login)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:            %s\n", u.ID)
			fmt.Fprintf(out, "login:         %s\n", u.Login)
			fmt.Fprintf(out, "name:          %s\n", u.Name)
			fmt.Fprintf(out, "email:         %s\n", util.MaskEmail(u.Email))
			fmt.Fprintf(out, "github id:     %s\n", u.ProviderID)
			fmt.Fprintf(out, "last login:    %s\n", u.LastLoginAt.Format(time.RFC3339))
			return nil
		},
	}
}
