package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/omihq/twitter-bridge/internal/config"
	"golang.org/x/oauth2"
)

// TwitterProvider implements Provider against the Twitter OAuth 2.0
// endpoints.
type TwitterProvider struct {
	oauth2Config *oauth2.Config
	client       *http.Client
}

func NewTwitterProvider(cfg *config.TwitterConfig) *TwitterProvider {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &TwitterProvider{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		client: &http.Client{Timeout: timeout},
	}
}

func (p *TwitterProvider) AuthCodeURL(state, codeChallenge string) string {
	return p.oauth2Config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

func (p *TwitterProvider) Exchange(ctx context.Context, code, codeVerifier string) (*oauth2.Token, error) {
	return p.oauth2Config.Exchange(p.httpContext(ctx), code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
}

func (p *TwitterProvider) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	return p.oauth2Config.TokenSource(p.httpContext(ctx), &oauth2.Token{
		RefreshToken: refreshToken,
	}).Token()
}

// httpContext routes the token-endpoint call through a client with a
// bounded timeout; the library would otherwise fall back to
// http.DefaultClient, which has none, and a stalled provider would hang
// the caller.
func (p *TwitterProvider) httpContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.client)
}
