// internal/cart/cookie.go
package cart

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// CookieName is the cookie carrying the signed cart snapshot.
const CookieName = "bh_cart"

var ErrBadCookie = errors.New("cart cookie failed signature verification")

type cartClaims struct {
	Items    []Line `json:"items"`
	Currency string `json:"currency"`
	jwt.RegisteredClaims
}

// CookieCodec signs cart snapshots into an HS256 JWT cookie and parses
// them back. The snapshot's lifetime is carried as the token's iat/exp
// claims, but expiry is NOT enforced at parse time: the checkout
// orchestrator owns the expiry boundary rule.
type CookieCodec struct {
	secret []byte
	parser *jwt.Parser
}

func NewCookieCodec(secret []byte) *CookieCodec {
	return &CookieCodec{
		secret: secret,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
}

// Encode signs the snapshot into a cookie.
func (c *CookieCodec) Encode(s *Snapshot) (*http.Cookie, error) {
	claims := cartClaims{
		Items:    s.Items,
		Currency: s.Currency,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return nil, fmt.Errorf("sign cart cookie: %w", err)
	}

	return &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Decode parses the cart cookie from the request. It returns (nil, nil)
// when no cart cookie is present, and ErrBadCookie when the signature
// does not verify.
func (c *CookieCodec) Decode(r *http.Request) (*Snapshot, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}

	var claims cartClaims
	_, err = c.parser.ParseWithClaims(cookie.Value, &claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCookie, err)
	}

	return &Snapshot{
		Items:     claims.Items,
		Currency:  claims.Currency,
		CreatedAt: claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Clear returns a cookie that deletes the cart on the client.
func (c *CookieCodec) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
