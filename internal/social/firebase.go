package social

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goodabcdef/instagram-project/internal/models"
	"github.com/goodabcdef/instagram-project/internal/observability"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.opentelemetry.io/otel/attribute"
)

const firebaseIssuerPrefix = "https://securetoken.google.com/"

// FirebaseConfig configures ID token verification.
type FirebaseConfig struct {
	ProjectID string
	JWKSURL   string
	Timeout   time.Duration
}

// FirebaseVerifier checks Firebase ID tokens against Google's signing keys.
type FirebaseVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewFirebaseVerifier builds a verifier that fetches keys from cfg.JWKSURL.
func NewFirebaseVerifier(cfg FirebaseConfig) *FirebaseVerifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	keyCtx := oidc.ClientContext(context.Background(), &http.Client{
		Timeout:   timeout,
		Transport: keyEndpointTransport{next: http.DefaultTransport},
	})
	return NewFirebaseVerifierWithKeySet(cfg.ProjectID, oidc.NewRemoteKeySet(keyCtx, cfg.JWKSURL))
}

// NewFirebaseVerifierWithKeySet builds a verifier over an explicit key set.
func NewFirebaseVerifierWithKeySet(projectID string, keys oidc.KeySet) *FirebaseVerifier {
	return &FirebaseVerifier{
		verifier: oidc.NewVerifier(firebaseIssuerPrefix+projectID, watchedKeySet{keys: keys}, &oidc.Config{
			ClientID:             projectID,
			SupportedSigningAlgs: []string{oidc.RS256},
		}),
	}
}

type firebaseClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Verify validates rawToken and returns the identity it asserts.
func (f *FirebaseVerifier) Verify(ctx context.Context, rawToken string) (id *Identity, err error) {
	ctx, span := observability.StartClientSpan(ctx, "firebase.verify", attribute.String("provider", "firebase"))
	start := time.Now()
	defer func() {
		observability.ObserveProvider("firebase", "verify", start, err)
		observability.EndSpan(span, err)
	}()

	if rawToken == "" {
		return nil, fmt.Errorf("%w: empty token", ErrIdentityRejected)
	}

	var fetchErr error
	token, err := f.verifier.Verify(context.WithValue(ctx, keyFetchSlot{}, &fetchErr), rawToken)
	if fetchErr != nil {
		return nil, fmt.Errorf("%w: signing keys: %v", ErrProviderUnavailable, fetchErr)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityRejected, err)
	}
	if token.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrIdentityRejected)
	}

	var claims firebaseClaims
	if err := token.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityRejected, err)
	}

	email := claims.Email
	if email == "" {
		email = token.Subject + "@firebase.example"
	}
	name := claims.Name
	if name == "" {
		name = localPart(email)
	}

	return &Identity{
		Provider:   models.ProviderFirebase,
		ProviderID: token.Subject,
		Email:      email,
		Nickname:   name,
		ImageURL:   claims.Picture,
	}, nil
}

// keyFetchSlot carries a *error through the oidc verifier, which flattens
// key set errors to text before returning them.
type keyFetchSlot struct{}

// watchedKeySet records failures to obtain signing keys so Verify can tell
// an unreachable key endpoint apart from a bad token.
type watchedKeySet struct {
	keys oidc.KeySet
}

func (w watchedKeySet) VerifySignature(ctx context.Context, jwt string) ([]byte, error) {
	payload, err := w.keys.VerifySignature(ctx, jwt)
	if err != nil && isKeyFetchError(err) {
		if slot, ok := ctx.Value(keyFetchSlot{}).(*error); ok {
			*slot = err
		}
	}
	return payload, err
}

// isKeyFetchError matches transport failures and deadlines. Non-2xx key
// endpoint responses reach here as *url.Error via keyEndpointTransport.
func isKeyFetchError(err error) bool {
	var urlErr *url.Error
	return errors.As(err, &urlErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, ErrProviderUnavailable)
}

// keyEndpointTransport turns a non-2xx JWKS response into a transport error.
type keyEndpointTransport struct {
	next http.RoundTripper
}

func (t keyEndpointTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: key endpoint returned %s", ErrProviderUnavailable, resp.Status)
	}
	return resp, nil
}
