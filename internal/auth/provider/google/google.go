// Package google signs members in with Google OAuth 2.0 using the
// authorization code flow with PKCE.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"

	"github.com/outta-ai/outta-auth/internal/auth/domain"
	"github.com/outta-ai/outta-auth/internal/auth/provider"
	"github.com/outta-ai/outta-auth/internal/auth/service"
	"github.com/outta-ai/outta-auth/pkg/cryptox"
	"github.com/outta-ai/outta-auth/pkg/jwtx"
	"github.com/outta-ai/outta-auth/pkg/slogx"
)

const (
	Name = domain.ProviderGoogle

	DefaultUserInfoURL = "https://www.googleapis.com/userinfo/v2/me"
	DefaultTimeout     = 10 * time.Second

	callbackPath = "/outta/auth/google/callback"
)

var scopes = []string{"openid", "email", "profile"}

// Config holds the OAuth client registration. The URL fields override
// Google's endpoints and are empty in production.
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string

	AuthURL     string
	TokenURL    string
	UserInfoURL string

	Timeout time.Duration
}

// Provider is the Google adapter.
type Provider struct {
	cfg         Config
	deps        provider.Deps
	oauth       oauth2.Config
	client      *http.Client
	userInfoURL string

	// refreshes collapses concurrent renewals of one refresh token, as
	// when several tabs refresh at once.
	refreshes singleflight.Group
}

var _ provider.Provider = (*Provider)(nil)

func New(cfg Config, deps provider.Deps) *Provider {
	endpoint := google.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = DefaultUserInfoURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Provider{
		cfg:  cfg,
		deps: deps,
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.BaseURL + callbackPath,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		client:      &http.Client{Timeout: timeout},
		userInfoURL: userInfoURL,
	}
}

func (p *Provider) Name() string { return Name }

// Config validates the client registration and the shared secrets.
func (p *Provider) Config() error {
	switch {
	case p.cfg.ClientID == "":
		return errors.New("missing GOOGLE_OAUTH_CLIENT_ID")
	case p.cfg.ClientSecret == "":
		return errors.New("missing GOOGLE_OAUTH_CLIENT_SECRET")
	case p.cfg.BaseURL == "":
		return errors.New("missing BASE_URL")
	}

	if u, err := url.Parse(p.cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid BASE_URL %q", p.cfg.BaseURL)
	}
	if len(p.deps.CookieKey) != cryptox.CookieKeySize {
		return fmt.Errorf("cookie key: %w", cryptox.ErrInvalidKey)
	}
	if p.deps.Members == nil || p.deps.Sessions == nil {
		return errors.New("member and session services are required")
	}
	return nil
}

// SignIn queues the transient cookies and returns Google's consent URL.
// access_type=offline asks Google for a refresh token.
func (p *Provider) SignIn(ctx context.Context, s *provider.Session) (string, error) {
	state, verifier, err := provider.BeginAttempt(s, Name, p.deps.CookieKey)
	if err != nil {
		return "", err
	}

	return p.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	), nil
}

// Callback exchanges the authorization code and signs the member in.
func (p *Provider) Callback(ctx context.Context, s *provider.Session) (*provider.Result, error) {
	defer s.ClearTransient()

	if err := provider.CheckState(s, Name); err != nil {
		return nil, err
	}

	code := s.Query("code")
	if code == "" {
		return nil, domain.ErrNoCode
	}

	verifier, err := provider.CodeVerifier(s, p.deps.CookieKey)
	if err != nil {
		return nil, err
	}

	returnURL, err := provider.StoredReturnURL(s)
	if err != nil {
		return nil, err
	}

	ctx = p.clientContext(ctx)

	start := time.Now()
	tok, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		aerr := classifyTokenError(err)
		p.observe(ctx, "exchange", aerr, start)
		return nil, aerr
	}
	p.observe(ctx, "exchange", nil, start)

	id, err := p.userInfo(ctx, tok)
	if err != nil {
		return nil, err
	}

	res, err := p.deps.StartSession(ctx, s, id, service.ProviderAuth{
		Provider:     Name,
		RefreshToken: tok.RefreshToken,
	})
	if err != nil {
		return nil, err
	}

	res.ReturnURL = returnURL
	return res, nil
}

// Refresh trades the Google refresh token in claims for a new access token
// and re-mints the session. The token source keeps the old refresh token
// when Google does not rotate it.
func (p *Provider) Refresh(ctx context.Context, s *provider.Session, claims jwtx.RefreshClaims) (*provider.Result, error) {
	ctx = p.clientContext(ctx)

	start := time.Now()
	rt := claims.Authentication.Token
	// The shared call outlives any one caller; the client timeout bounds it.
	flight := p.refreshes.DoChan(cryptox.FingerprintToken(rt), func() (any, error) {
		return p.oauth.TokenSource(context.WithoutCancel(ctx), &oauth2.Token{RefreshToken: rt}).Token()
	})

	var (
		v   any
		err error
	)
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case r := <-flight:
		v, err = r.Val, r.Err
	}
	if err != nil {
		aerr := classifyTokenError(err)
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.ErrorCode == "invalid_grant" {
			aerr = domain.ErrInvalidRefreshToken.WithCause(err)
		}
		p.observe(ctx, "refresh", aerr, start)
		return nil, aerr
	}
	p.observe(ctx, "refresh", nil, start)
	tok := v.(*oauth2.Token)

	id, err := p.userInfo(ctx, tok)
	if err != nil {
		return nil, err
	}

	return p.deps.ResumeSession(ctx, s, id, service.ProviderAuth{
		Provider:     Name,
		RefreshToken: tok.RefreshToken,
	}, claims.Member)
}

type userInfoResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (p *Provider) userInfo(ctx context.Context, tok *oauth2.Token) (domain.Identity, error) {
	start := time.Now()

	id, err := p.fetchUserInfo(ctx, tok)
	p.observe(ctx, "userinfo", err, start)
	if err != nil {
		return domain.Identity{}, err
	}
	return id, nil
}

func (p *Provider) fetchUserInfo(ctx context.Context, tok *oauth2.Token) (domain.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return domain.Identity{}, domain.ErrInternal.WithCause(err)
	}
	tok.SetAuthHeader(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.Identity{}, domain.ErrInternal.WithCause(fmt.Errorf("userinfo: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Identity{}, domain.ErrInvalidResponse.WithCause(fmt.Errorf("userinfo: status %d", resp.StatusCode))
	}

	var info userInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return domain.Identity{}, domain.ErrInvalidResponse.WithCause(fmt.Errorf("userinfo: %w", err))
	}
	if info.ID == "" || info.Email == "" {
		return domain.Identity{}, domain.ErrInvalidResponse.WithCause(errors.New("userinfo: missing id or email"))
	}

	return domain.Identity{
		Provider: Name,
		Subject:  info.ID,
		Email:    domain.NormalizeEmail(info.Email),
		Name:     info.Name,
	}, nil
}

// clientContext routes oauth2's token requests through the bounded client.
func (p *Provider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.client)
}

func (p *Provider) observe(ctx context.Context, call string, err error, start time.Time) {
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = domain.ErrInternal.Code
		var aerr *domain.AuthError
		if errors.As(err, &aerr) {
			outcome = aerr.Code
		}
		slogx.FromContext(ctx).Warn("google request failed",
			slog.String("call", call),
			slog.Duration("elapsed", elapsed),
			slogx.Err(err),
		)
	}
	p.deps.Metrics.Upstream(Name, call, outcome, elapsed)
}

// classifyTokenError separates transport failures from bad responses. An
// error response or an unparseable body from the token endpoint is
// invalid_response; a network failure or timeout is internal_error.
func classifyTokenError(err error) *domain.AuthError {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return domain.ErrInvalidResponse.WithCause(err)
	}

	var ue *url.Error
	if errors.As(err, &ue) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.ErrInternal.WithCause(err)
	}

	return domain.ErrInvalidResponse.WithCause(err)
}
