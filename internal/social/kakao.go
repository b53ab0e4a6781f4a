package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goodabcdef/instagram-project/internal/models"
	"github.com/goodabcdef/instagram-project/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
)

// DefaultKakaoNickname is used when the Kakao profile has no nickname.
const DefaultKakaoNickname = "카카오유저"

// KakaoConfig configures the authorization-code bridge.
type KakaoConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Timeout      time.Duration
}

// KakaoProvider runs the Kakao authorization-code flow.
type KakaoProvider struct {
	oauth       oauth2.Config
	userInfoURL string
	client      *http.Client
}

// NewKakaoProvider builds a provider from cfg.
func NewKakaoProvider(cfg KakaoConfig) *KakaoProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &KakaoProvider{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL: cfg.UserInfoURL,
		client:      &http.Client{Timeout: timeout},
	}
}

// AuthURL is where the client should send the user to authorize.
func (k *KakaoProvider) AuthURL() string {
	return k.oauth.AuthCodeURL("")
}

type kakaoUser struct {
	ID           int64 `json:"id"`
	KakaoAccount struct {
		Email   string `json:"email"`
		Profile struct {
			Nickname        string `json:"nickname"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

// Exchange trades an authorization code for the Kakao user it identifies.
func (k *KakaoProvider) Exchange(ctx context.Context, code string) (id *Identity, err error) {
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", ErrProviderRejected)
	}

	ctx, span := observability.StartClientSpan(ctx, "kakao.exchange", attribute.String("provider", "kakao"))
	start := time.Now()
	defer func() {
		observability.ObserveProvider("kakao", "exchange", start, err)
		observability.EndSpan(span, err)
	}()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, k.client)

	tok, err := k.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, classifyExchangeError(err)
	}

	user, err := k.fetchUser(ctx, tok)
	if err != nil {
		return nil, err
	}

	providerID := strconv.FormatInt(user.ID, 10)
	email := user.KakaoAccount.Email
	if email == "" {
		email = providerID + "@kakao.example"
	}
	nickname := user.KakaoAccount.Profile.Nickname
	if nickname == "" {
		nickname = DefaultKakaoNickname
	}

	return &Identity{
		Provider:   models.ProviderKakao,
		ProviderID: providerID,
		Email:      email,
		Nickname:   nickname,
		ImageURL:   user.KakaoAccount.Profile.ProfileImageURL,
	}, nil
}

func (k *KakaoProvider) fetchUser(ctx context.Context, tok *oauth2.Token) (*kakaoUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	resp, err := k.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: user info request: %v", ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: user info returned %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var user kakaoUser
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: decode user info: %v", ErrProviderUnavailable, err)
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("%w: user info missing id", ErrProviderUnavailable)
	}
	return &user, nil
}

// classifyExchangeError separates a refused code from an unreachable provider.
func classifyExchangeError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.Response != nil && re.Response.StatusCode >= 500 {
			return fmt.Errorf("%w: token endpoint returned %d", ErrProviderUnavailable, re.Response.StatusCode)
		}
		if re.ErrorCode != "" {
			return fmt.Errorf("%w: %s", ErrProviderRejected, re.ErrorCode)
		}
		return fmt.Errorf("%w: %v", ErrProviderRejected, err)
	}
	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}
