package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/dropDatabas3/githubauth/internal/identity"
	"github.com/dropDatabas3/githubauth/internal/metrics"
	"github.com/dropDatabas3/githubauth/internal/oauth/github"
	"github.com/dropDatabas3/githubauth/internal/observability/logger"
	"github.com/dropDatabas3/githubauth/internal/util"
)

const (
	ProviderKey  = "github"
	ProviderName = "GitHub"
)

var tracer = otel.Tracer("github.com/dropDatabas3/githubauth/internal/auth")

// Settings yields the provider configuration snapshot used for one flow.
type Settings interface {
	ProviderConfig() (github.Config, error)
}

// GitHubClient performs the outbound calls. *github.Client implements it.
type GitHubClient interface {
	ExchangeCode(ctx context.Context, code string, cfg github.Config) (*github.AccessToken, error)
	FetchProfile(ctx context.Context, token *github.AccessToken, cfg github.Config) (*github.RawProfile, error)
}

type Deps struct {
	Settings Settings
	Client   GitHubClient // defaults to github.NewClient()
}

// Provider is stateless between flows; one instance serves concurrent callbacks.
type Provider struct {
	settings Settings
	client   GitHubClient
}

func NewProvider(d Deps) *Provider {
	c := d.Client
	if c == nil {
		c = github.NewClient()
	}
	return &Provider{settings: d.Settings, client: c}
}

func (p *Provider) Key() string  { return ProviderKey }
func (p *Provider) Name() string { return ProviderName }

// IsEnabled reports the enabled flag; configuration errors read as disabled.
func (p *Provider) IsEnabled() bool {
	cfg, err := p.snapshot()
	return err == nil && cfg.Enabled
}

// snapshot reads the settings once and validates them. No network access.
func (p *Provider) snapshot() (github.Config, error) {
	if p.settings == nil {
		return github.Config{}, fmt.Errorf("%w: no settings source", github.ErrConfiguration)
	}
	cfg, err := p.settings.ProviderConfig()
	if err != nil {
		if errors.Is(err, github.ErrConfiguration) {
			return github.Config{}, err
		}
		return github.Config{}, fmt.Errorf("%w: %v", github.ErrConfiguration, err)
	}
	return cfg.WithDefaults(), nil
}

func (p *Provider) enabledSnapshot() (github.Config, error) {
	cfg, err := p.snapshot()
	if err != nil {
		return github.Config{}, err
	}
	if !cfg.Enabled {
		return github.Config{}, ErrProviderDisabled
	}
	if err := cfg.Validate(); err != nil {
		return github.Config{}, err
	}
	return cfg, nil
}

// Init starts a sign-in: it asks the host for a CSRF state and redirects the browser to
// GitHub's authorize page.
func (p *Provider) Init(ic InitContext) error {
	log := logger.L().With(logger.Layer("service"), logger.Component("github.init"), logger.Provider(ProviderKey))

	cfg, err := p.enabledSnapshot()
	if err != nil {
		log.Warn("github init rejected", logger.Err(err))
		return err
	}
	state, err := ic.GenerateCSRFState()
	if err != nil {
		return err
	}
	return ic.Redirect(github.AuthCodeURL(cfg, state, ic.CallbackURL()))
}

// Callback completes a sign-in. Errors from the host's CallbackContext methods are returned as
// they are; every other failure wraps one of the package sentinels or github.ErrConfiguration,
// github.ErrTokenExchange, github.ErrProfileFetch, identity.ErrMapping.
func (p *Provider) Callback(cc CallbackContext) error {
	ctx := context.Background()
	if r := cc.Request(); r != nil {
		ctx = r.Context()
	}
	ctx, span := tracer.Start(ctx, "github.Callback")
	defer span.End()

	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("github.callback"), logger.Provider(ProviderKey))
	ctx = logger.ToContext(ctx, log)

	state, failedAt, err := p.callback(ctx, cc)
	span.SetAttributes(attribute.String("auth.state", string(state)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, failedAt)
		metrics.RecordCallback(failedAt)
		log.Warn("github callback failed", logger.Step(failedAt), logger.Err(err))
		return err
	}
	metrics.RecordCallback("ok")
	return nil
}

// callback runs the state machine. On failure it returns StateFailed and the name of the step
// that failed.
func (p *Provider) callback(ctx context.Context, cc CallbackContext) (State, string, error) {
	log := logger.From(ctx)

	cfg, err := p.enabledSnapshot()
	if err != nil {
		if errors.Is(err, ErrProviderDisabled) {
			return StateFailed, "disabled", err
		}
		return StateFailed, "config", err
	}

	if err := cc.VerifyCSRFState(); err != nil {
		return StateFailed, "csrf", err
	}
	log.Debug("csrf state verified", logger.Step(string(StateCSRFVerified)))

	code := ""
	if r := cc.Request(); r != nil {
		code = strings.TrimSpace(r.URL.Query().Get("code"))
	}
	if code == "" {
		return StateFailed, "code", ErrMissingCode
	}

	token, err := p.client.ExchangeCode(ctx, code, cfg)
	if err != nil {
		return StateFailed, "token", err
	}
	log.Debug("access token obtained", logger.Step(string(StateTokenObtained)), logger.String("scope", token.Scope))

	raw, err := p.client.FetchProfile(ctx, token, cfg)
	if err != nil {
		return StateFailed, "profile", err
	}
	log.Debug("profile fetched", logger.Step(string(StateProfileFetched)))

	id, err := identity.Map(raw)
	if err != nil {
		return StateFailed, "mapping", err
	}

	if err := cc.Authenticate(id); err != nil {
		return StateFailed, "authenticate", err
	}
	log.Info("github identity asserted",
		logger.Step(string(StateIdentityAsserted)),
		logger.Login(id.Login),
		logger.Email(util.MaskEmail(id.Email)),
	)

	if err := cc.RedirectToRequestedPage(); err != nil {
		return StateFailed, "redirect", err
	}
	return StateRedirected, "", nil
}
