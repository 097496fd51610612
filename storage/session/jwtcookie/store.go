// Package jwtsession keeps the session in a signed cookie, so it survives server restarts.
package jwtsession

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/tneregistro/portal/core"
	"github.com/tneregistro/portal/core/session"
)

const issuer = "tne-portal"

type claims struct {
	jwt.StandardClaims
	Role  string `json:"role"`
	Email string `json:"email"`
}

type provider struct {
	secret []byte
	cookie session.CookieOptions
}

var _ session.Provider = (*provider)(nil)

func NewProvider(conf *core.Config) session.Provider {
	return &provider{
		secret: []byte(conf.SecretKey),
		cookie: session.CookieOptions{
			Name:   conf.Session.CookieName,
			Secure: conf.Session.Secure,
			MaxAge: conf.Session.MaxAge,
		},
	}
}

func (p *provider) Store(w http.ResponseWriter, r *http.Request) session.Store {
	return &store{p: p, w: w, r: r}
}

// store is bound to one request. Writes are also kept locally so a Load after Save
// in the same request sees the new value.
type store struct {
	p *provider
	w http.ResponseWriter
	r *http.Request

	written bool
	current session.Session
}

func (s *store) Save(sess session.Session) error {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		StandardClaims: jwt.StandardClaims{
			Id:       sess.ID,
			Issuer:   issuer,
			Subject:  sess.Email,
			IssuedAt: sess.CreatedAt.Unix(),
		},
		Role:  sess.Role,
		Email: sess.Email,
	})
	signed, err := token.SignedString(s.p.secret)
	if err != nil {
		return errors.Wrap(err, "signing session token")
	}
	http.SetCookie(s.w, s.p.cookie.NewCookie(signed))
	s.written, s.current = true, sess
	return nil
}

// Load returns the session in the request cookie. Missing, tampered or foreign tokens load as absent.
func (s *store) Load() (session.Session, bool) {
	if s.written {
		return s.current, s.current.LoggedIn()
	}
	raw := s.p.cookie.Read(s.r)
	if raw == "" {
		return session.Session{}, false
	}
	sess, err := s.p.parse(raw)
	if err != nil || !sess.LoggedIn() {
		return session.Session{}, false
	}
	return sess, true
}

func (s *store) Clear() error {
	http.SetCookie(s.w, s.p.cookie.NewCookie(""))
	s.written, s.current = true, session.Session{}
	return nil
}

func (p *provider) parse(raw string) (session.Session, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return session.Session{}, errors.Wrap(err, "parsing session token")
	}
	if c.Issuer != issuer {
		return session.Session{}, errors.New("foreign session token")
	}
	return session.Session{
		ID:        c.Id,
		Role:      c.Role,
		Email:     c.Email,
		CreatedAt: time.Unix(c.IssuedAt, 0).UTC(),
	}, nil
}
