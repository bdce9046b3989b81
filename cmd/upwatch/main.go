// Package main provides the entry point for the UpWatch CLI.
// The CLI authenticates against an UpWatch uptime-monitoring backend with
// email/password or a provider sign-in, keeps the session fresh across
// requests, and exposes a few authenticated queries.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/upwatch/upwatch-cli/internal/buildinfo"
	"github.com/upwatch/upwatch-cli/internal/cmd"
	"github.com/upwatch/upwatch-cli/internal/config"
	"github.com/upwatch/upwatch-cli/internal/logging"
	"github.com/upwatch/upwatch-cli/internal/oauth"
	"github.com/upwatch/upwatch-cli/internal/session"
)

var (
	Version           = "dev"
	Commit            = "none"
	BuildDate         = "unknown"
	DefaultConfigPath = ""
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

// main parses command-line flags, loads configuration, selects the session
// store backend, and dispatches to the requested operation.
func main() {
	// Command-line flags to control the application's behavior.
	var login bool
	var register bool
	var googleLogin bool
	var githubLogin bool
	var logout bool
	var whoami bool
	var forgotPassword string
	var resetUID string
	var resetToken string
	var newPassword string
	var email string
	var password string
	var rememberMe bool
	var noBrowser bool
	var oauthCallbackPort int
	var configPath string
	var version bool

	flag.BoolVar(&login, "login", false, "Log in with email and password")
	flag.BoolVar(&register, "register", false, "Create a new account")
	flag.BoolVar(&googleLogin, "google-login", false, "Log in with Google")
	flag.BoolVar(&githubLogin, "github-login", false, "Log in with GitHub")
	flag.BoolVar(&logout, "logout", false, "Clear the stored session")
	flag.BoolVar(&whoami, "whoami", false, "Show the authenticated user's profile")
	flag.StringVar(&forgotPassword, "forgot-password", "", "Request a password reset link for the given email")
	flag.StringVar(&resetUID, "reset-uid", "", "User identifier from the password reset link")
	flag.StringVar(&resetToken, "reset-token", "", "One-time token from the password reset link")
	flag.StringVar(&newPassword, "new-password", "", "New password for -reset-uid/-reset-token")
	flag.StringVar(&email, "email", "", "Email for -login (skips the interactive form)")
	flag.StringVar(&password, "password", "", "Password for -login (skips the interactive form)")
	flag.BoolVar(&rememberMe, "remember-me", false, "Request a long-lived session")
	flag.BoolVar(&noBrowser, "no-browser", false, "Don't open browser automatically for OAuth")
	flag.IntVar(&oauthCallbackPort, "oauth-callback-port", 0, "Override OAuth callback port")
	flag.StringVar(&configPath, "config", DefaultConfigPath, "Configure File Path")
	flag.BoolVar(&version, "version", false, "Print version and exit")

	flag.Parse()

	if version {
		fmt.Printf("UpWatch CLI Version: %s, Commit: %s, BuiltAt: %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)
		return
	}

	wd, err := os.Getwd()
	if err != nil {
		log.Errorf("failed to get working directory: %v", err)
		return
	}

	// Load environment variables from .env if present.
	if errLoad := godotenv.Load(filepath.Join(wd, ".env")); errLoad != nil {
		if !errors.Is(errLoad, os.ErrNotExist) {
			log.WithError(errLoad).Warn("failed to load .env file")
		}
	}

	// Determine and load the configuration file.
	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.LoadConfigOptional(configPath)
	} else {
		cfg, err = config.LoadConfigOptional(filepath.Join(wd, "config.yaml"))
	}
	if err != nil {
		log.Errorf("failed to load config: %v", err)
		return
	}

	if err = logging.ConfigureLogOutput(cfg); err != nil {
		log.Errorf("failed to configure log output: %v", err)
		return
	}
	defer logging.CloseLogOutput()

	store, cleanup, err := selectSessionStore(cfg)
	if err != nil {
		log.Errorf("failed to initialize session store: %v", err)
		return
	}
	defer cleanup()

	options := &cmd.LoginOptions{
		Email:        email,
		Password:     password,
		RememberMe:   rememberMe,
		NoBrowser:    noBrowser,
		CallbackPort: oauthCallbackPort,
	}

	// Handle different command modes based on the provided flags.
	switch {
	case login:
		cmd.DoLogin(cfg, store, options)
	case register:
		cmd.DoRegister(cfg, store)
	case googleLogin:
		cmd.DoOAuthLogin(cfg, store, oauth.Google, options)
	case githubLogin:
		cmd.DoOAuthLogin(cfg, store, oauth.GitHub, options)
	case logout:
		cmd.DoLogout(cfg, store)
	case whoami:
		cmd.DoWhoami(cfg, store)
	case forgotPassword != "":
		cmd.DoForgotPassword(cfg, store, forgotPassword)
	case resetUID != "" || resetToken != "":
		cmd.DoResetPassword(cfg, store, resetUID, resetToken, newPassword)
	default:
		flag.Usage()
	}
}

// selectSessionStore picks the persistence backend from the environment.
// Postgres wins over object storage, and the local session file is the
// fallback. The returned cleanup releases backend resources.
func selectSessionStore(cfg *config.Config) (session.Store, func(), error) {
	noop := func() {}

	lookupEnv := func(keys ...string) (string, bool) {
		for _, key := range keys {
			if value, ok := os.LookupEnv(key); ok {
				if trimmed := strings.TrimSpace(value); trimmed != "" {
					return trimmed, true
				}
			}
		}
		return "", false
	}

	if dsn, ok := lookupEnv("PGSTORE_DSN", "pgstore_dsn"); ok {
		schema, _ := lookupEnv("PGSTORE_SCHEMA", "pgstore_schema")
		key, _ := lookupEnv("PGSTORE_KEY", "pgstore_key")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		store, err := session.NewPostgresStore(ctx, session.PostgresStoreConfig{
			DSN:    dsn,
			Schema: schema,
			Key:    key,
		})
		if err != nil {
			return nil, noop, err
		}
		log.Info("postgres-backed session store enabled")
		return store, func() { _ = store.Close() }, nil
	}

	if endpoint, ok := lookupEnv("OBJECTSTORE_ENDPOINT", "objectstore_endpoint"); ok {
		accessKey, _ := lookupEnv("OBJECTSTORE_ACCESS_KEY", "objectstore_access_key")
		secretKey, _ := lookupEnv("OBJECTSTORE_SECRET_KEY", "objectstore_secret_key")
		bucket, _ := lookupEnv("OBJECTSTORE_BUCKET", "objectstore_bucket")
		prefix, _ := lookupEnv("OBJECTSTORE_PREFIX", "objectstore_prefix")

		endpoint, useSSL, err := resolveObjectEndpoint(endpoint)
		if err != nil {
			return nil, noop, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		store, err := session.NewObjectStore(ctx, session.ObjectStoreConfig{
			Endpoint:  endpoint,
			Bucket:    bucket,
			AccessKey: accessKey,
			SecretKey: secretKey,
			Prefix:    prefix,
			UseSSL:    useSSL,
			PathStyle: true,
		})
		if err != nil {
			return nil, noop, err
		}
		log.Infof("object-backed session store enabled, bucket: %s", bucket)
		return store, noop, nil
	}

	return session.NewFileStore(cfg.AuthFilePath()), noop, nil
}

// resolveObjectEndpoint strips the scheme off an object store endpoint and
// reports whether TLS should be used. Bare host:port defaults to TLS.
func resolveObjectEndpoint(raw string) (string, bool, error) {
	raw = strings.TrimSpace(raw)
	useSSL := true
	if strings.Contains(raw, "://") {
		switch {
		case strings.HasPrefix(raw, "http://"):
			useSSL = false
			raw = strings.TrimPrefix(raw, "http://")
		case strings.HasPrefix(raw, "https://"):
			raw = strings.TrimPrefix(raw, "https://")
		default:
			return "", false, fmt.Errorf("unsupported object store scheme in %q (only http and https are allowed)", raw)
		}
	}
	return strings.TrimRight(raw, "/"), useSSL, nil
}
