package social

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/goodabcdef/instagram-project/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kakaoFake struct {
	tokenStatus int
	tokenBody   string
	userStatus  int
	userBody    string
	delay       time.Duration
	gotCode     string
	gotAuth     string
}

func (f *kakaoFake) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if f.delay > 0 {
			time.Sleep(f.delay)
		}
		_ = r.ParseForm()
		f.gotCode = r.PostForm.Get("code")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.tokenStatus)
		_, _ = w.Write([]byte(f.tokenBody))
	})
	mux.HandleFunc("/v2/user/me", func(w http.ResponseWriter, r *http.Request) {
		f.gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.userStatus)
		_, _ = w.Write([]byte(f.userBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newKakao(srvURL string, timeout time.Duration) *KakaoProvider {
	return NewKakaoProvider(KakaoConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:8000/auth/kakao/callback",
		AuthURL:      srvURL + "/oauth/authorize",
		TokenURL:     srvURL + "/oauth/token",
		UserInfoURL:  srvURL + "/v2/user/me",
		Timeout:      timeout,
	})
}

const okToken = `{"access_token":"kakao-access","token_type":"bearer","expires_in":3600}`

func TestKakao_AuthURL(t *testing.T) {
	k := newKakao("https://kauth.example", time.Second)
	u, err := url.Parse(k.AuthURL())
	require.NoError(t, err)

	assert.Equal(t, "/oauth/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "http://localhost:8000/auth/kakao/callback", q.Get("redirect_uri"))
	assert.Equal(t, "code", q.Get("response_type"))
}

func TestKakao_ExchangeSuccess(t *testing.T) {
	fake := &kakaoFake{
		tokenStatus: http.StatusOK,
		tokenBody:   okToken,
		userStatus:  http.StatusOK,
		userBody:    `{"id":42,"kakao_account":{"email":"k@x.com","profile":{"nickname":"Kim","profile_image_url":"http://img/k.png"}}}`,
	}
	srv := fake.server(t)

	id, err := newKakao(srv.URL, time.Second).Exchange(context.Background(), "the-code")
	require.NoError(t, err)

	assert.Equal(t, "the-code", fake.gotCode)
	assert.Equal(t, "Bearer kakao-access", fake.gotAuth)
	assert.Equal(t, models.ProviderKakao, id.Provider)
	assert.Equal(t, "42", id.ProviderID)
	assert.Equal(t, "k@x.com", id.Email)
	assert.Equal(t, "Kim", id.Nickname)
	assert.Equal(t, "http://img/k.png", id.ImageURL)
}

func TestKakao_ExchangeFallbacks(t *testing.T) {
	fake := &kakaoFake{
		tokenStatus: http.StatusOK,
		tokenBody:   okToken,
		userStatus:  http.StatusOK,
		userBody:    `{"id":7,"kakao_account":{}}`,
	}
	srv := fake.server(t)

	id, err := newKakao(srv.URL, time.Second).Exchange(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "7@kakao.example", id.Email)
	assert.Equal(t, DefaultKakaoNickname, id.Nickname)
}

func TestKakao_ExchangeErrors(t *testing.T) {
	tests := []struct {
		name    string
		fake    *kakaoFake
		timeout time.Duration
		want    error
	}{
		{
			name: "invalid grant",
			fake: &kakaoFake{tokenStatus: http.StatusBadRequest, tokenBody: `{"error":"invalid_grant","error_description":"authorization code not found"}`},
			want: ErrProviderRejected,
		},
		{
			name: "token endpoint 5xx",
			fake: &kakaoFake{tokenStatus: http.StatusBadGateway, tokenBody: `oops`},
			want: ErrProviderUnavailable,
		},
		{
			name: "user info failure",
			fake: &kakaoFake{tokenStatus: http.StatusOK, tokenBody: okToken, userStatus: http.StatusUnauthorized, userBody: `{}`},
			want: ErrProviderUnavailable,
		},
		{
			name: "user info garbage",
			fake: &kakaoFake{tokenStatus: http.StatusOK, tokenBody: okToken, userStatus: http.StatusOK, userBody: `not json`},
			want: ErrProviderUnavailable,
		},
		{
			name:    "timeout",
			fake:    &kakaoFake{tokenStatus: http.StatusOK, tokenBody: okToken, delay: 300 * time.Millisecond},
			timeout: 50 * time.Millisecond,
			want:    ErrProviderUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := tt.fake.server(t)
			timeout := tt.timeout
			if timeout == 0 {
				timeout = time.Second
			}
			_, err := newKakao(srv.URL, timeout).Exchange(context.Background(), "code")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestKakao_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := newKakao(srv.URL, time.Second).Exchange(context.Background(), "code")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestKakao_MissingCode(t *testing.T) {
	_, err := newKakao("http://127.0.0.1:1", time.Second).Exchange(context.Background(), "")
	assert.ErrorIs(t, err, ErrProviderRejected)
}
