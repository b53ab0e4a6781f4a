package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/goodabcdef/instagram-project/internal/auth"
	"github.com/goodabcdef/instagram-project/internal/featureflags"
	"github.com/goodabcdef/instagram-project/internal/middleware"
	"github.com/goodabcdef/instagram-project/internal/models"
	"github.com/goodabcdef/instagram-project/internal/observability"
	"github.com/goodabcdef/instagram-project/internal/repository"
	"github.com/goodabcdef/instagram-project/internal/social"
	"github.com/goodabcdef/instagram-project/internal/validation"
)

const invalidCredentialsMessage = "Incorrect email or password"

// KakaoBridge runs the Kakao authorization-code flow.
type KakaoBridge interface {
	AuthURL() string
	Exchange(ctx context.Context, code string) (*social.Identity, error)
}

// IdentityVerifier checks a third-party identity token.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawToken string) (*social.Identity, error)
}

// TokenPair is the OAuth2-style login response.
type TokenPair struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type SignupInput struct {
	Email    string
	Password string
	Nickname string
}

// AuthServiceConfig wires an AuthService. Kakao and Firebase may be nil,
// which disables the corresponding login.
type AuthServiceConfig struct {
	Users    repository.UserRepository
	Hasher   *auth.Hasher
	Tokens   *auth.TokenService
	Kakao    KakaoBridge
	Firebase IdentityVerifier
	Flags    *featureflags.Manager
	// AutoLink lets a social login sign into an existing account created
	// with another provider.
	AutoLink bool
}

// AuthService handles signup, password login, social login and bearer
// token resolution.
type AuthService struct {
	users    repository.UserRepository
	hasher   *auth.Hasher
	tokens   *auth.TokenService
	kakao    KakaoBridge
	firebase IdentityVerifier
	flags    *featureflags.Manager
	autoLink bool
}

func NewAuthService(cfg AuthServiceConfig) *AuthService {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = auth.NewHasher(0)
	}
	return &AuthService{
		users:    cfg.Users,
		hasher:   hasher,
		tokens:   cfg.Tokens,
		kakao:    cfg.Kakao,
		firebase: cfg.Firebase,
		flags:    cfg.Flags,
		autoLink: cfg.AutoLink,
	}
}

// Signup creates a local account. An existing email is a conflict and the
// existing record is left untouched.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	email := validation.NormalizeEmail(in.Email)
	nickname := strings.TrimSpace(in.Nickname)

	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateNickname(nickname); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email already registered")
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Email:    email,
		Password: &digest,
		Nickname: nickname,
		Provider: models.ProviderLocal,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user signed up", slog.Uint64("user_id", uint64(user.ID)))
	return user, nil
}

// Login checks a password and issues a bearer token. Unknown emails,
// wrong passwords and social-only accounts fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (pair *TokenPair, err error) {
	defer func() {
		observability.AuthAttempts.WithLabelValues("local", observability.Outcome(err)).Inc()
	}()

	email = validation.NormalizeEmail(email)
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.HasPassword() || !s.hasher.Check(password, *user.Password) {
		return nil, models.NewUnauthorizedError(invalidCredentialsMessage)
	}
	return s.issue(user.Email)
}

// KakaoAuthURL returns the authorization URL the client should open.
func (s *AuthService) KakaoAuthURL() (string, error) {
	if !s.kakaoEnabled() {
		return "", models.NewNotFoundError("Login provider", "kakao")
	}
	return s.kakao.AuthURL(), nil
}

// KakaoLogin exchanges an authorization code and signs the user in.
func (s *AuthService) KakaoLogin(ctx context.Context, code string) (pair *TokenPair, err error) {
	if !s.kakaoEnabled() {
		return nil, models.NewNotFoundError("Login provider", "kakao")
	}
	defer func() {
		observability.AuthAttempts.WithLabelValues("kakao", observability.Outcome(err)).Inc()
	}()

	if strings.TrimSpace(code) == "" {
		return nil, models.NewValidationError("Authorization code is required")
	}

	identity, err := s.kakao.Exchange(ctx, code)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "kakao exchange failed", slog.String("error", err.Error()))
		if errors.Is(err, social.ErrProviderRejected) {
			return nil, models.NewInvalidGrantError("Kakao rejected the authorization code", err)
		}
		return nil, models.NewBadGatewayError("Kakao is unavailable", err)
	}
	return s.SocialLogin(ctx, identity)
}

// FirebaseLogin verifies a Firebase ID token and signs the user in.
func (s *AuthService) FirebaseLogin(ctx context.Context, idToken string) (pair *TokenPair, err error) {
	if !s.firebaseEnabled() {
		return nil, models.NewNotFoundError("Login provider", "firebase")
	}
	defer func() {
		observability.AuthAttempts.WithLabelValues("firebase", observability.Outcome(err)).Inc()
	}()

	if strings.TrimSpace(idToken) == "" {
		return nil, models.NewValidationError("id_token is required")
	}

	identity, err := s.firebase.Verify(ctx, idToken)
	if err != nil {
		if errors.Is(err, social.ErrProviderUnavailable) {
			middleware.Logger.ErrorContext(ctx, "firebase signing keys unavailable", slog.String("error", err.Error()))
			return nil, models.NewBadGatewayError("Firebase is unavailable", err)
		}
		middleware.Logger.WarnContext(ctx, "firebase token rejected", slog.String("error", err.Error()))
		return nil, models.NewUnauthorizedError("Invalid identity token")
	}
	return s.SocialLogin(ctx, identity)
}

// SocialLogin links a verified identity to an account by email and
// issues a bearer token for it. The provider's own token is not kept.
func (s *AuthService) SocialLogin(ctx context.Context, identity *social.Identity) (*TokenPair, error) {
	if identity == nil || identity.Email == "" {
		return nil, models.NewUnauthorizedError("Invalid identity")
	}
	email := validation.NormalizeEmail(identity.Email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	switch {
	case user == nil:
		user, err = s.createSocialUser(ctx, email, identity)
		if err != nil {
			return nil, err
		}
	case user.Provider == identity.Provider:
	case s.autoLink:
		middleware.Logger.InfoContext(ctx, "linked social login to existing account",
			slog.Uint64("user_id", uint64(user.ID)),
			slog.String("account_provider", string(user.Provider)),
			slog.String("login_provider", string(identity.Provider)),
		)
	default:
		return nil, models.NewAccountExistsError(user.Provider)
	}

	return s.issue(user.Email)
}

func (s *AuthService) createSocialUser(ctx context.Context, email string, identity *social.Identity) (*models.User, error) {
	nickname := strings.TrimSpace(identity.Nickname)
	if r := []rune(nickname); len(r) > validation.MaxNicknameLength {
		nickname = string(r[:validation.MaxNicknameLength])
	}
	providerID := identity.ProviderID
	user := &models.User{
		Email:      email,
		Nickname:   nickname,
		ImageURL:   identity.ImageURL,
		Provider:   identity.Provider,
		ProviderID: &providerID,
	}
	err := s.users.Create(ctx, user)
	if err == nil {
		middleware.Logger.InfoContext(ctx, "created social account",
			slog.Uint64("user_id", uint64(user.ID)), slog.String("provider", string(identity.Provider)))
		return user, nil
	}

	// A concurrent first login may have created the row; use it if it
	// came from the same provider.
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != models.CodeConflict {
		return nil, err
	}
	existing, getErr := s.users.GetByEmail(ctx, email)
	if getErr != nil {
		return nil, getErr
	}
	if existing == nil {
		return nil, err
	}
	if existing.Provider != identity.Provider && !s.autoLink {
		return nil, models.NewAccountExistsError(existing.Provider)
	}
	return existing, nil
}

// Resolve maps a bearer token to its user. Any failure is an error.
func (s *AuthService) Resolve(ctx context.Context, token string) (*models.User, error) {
	subject, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByEmail(ctx, subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, auth.ErrInvalidToken
	}
	return user, nil
}

func (s *AuthService) issue(email string) (*TokenPair, error) {
	token, err := s.tokens.Issue(email)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &TokenPair{AccessToken: token, TokenType: "bearer"}, nil
}

func (s *AuthService) kakaoEnabled() bool {
	return s.kakao != nil && s.flags.EnabledOr(featureflags.KakaoLogin, 0, true)
}

func (s *AuthService) firebaseEnabled() bool {
	return s.firebase != nil && s.flags.EnabledOr(featureflags.FirebaseLogin, 0, true)
}
