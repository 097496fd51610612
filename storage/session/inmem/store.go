// Package memsession keeps sessions in process memory; the browser only holds an opaque ID.
// Sessions are lost on restart.
package memsession

import (
	"net/http"

	"github.com/patrickmn/go-cache"

	"github.com/tneregistro/portal/core"
	"github.com/tneregistro/portal/core/session"
)

type provider struct {
	sessions *cache.Cache
	cookie   session.CookieOptions
}

var _ session.Provider = (*provider)(nil)

func NewProvider(conf *core.Config) session.Provider {
	return &provider{
		sessions: cache.New(cache.NoExpiration, 0),
		cookie: session.CookieOptions{
			Name:   conf.Session.CookieName,
			Secure: conf.Session.Secure,
			MaxAge: conf.Session.MaxAge,
		},
	}
}

func (p *provider) Store(w http.ResponseWriter, r *http.Request) session.Store {
	return &store{p: p, w: w, id: p.cookie.Read(r)}
}

type store struct {
	p  *provider
	w  http.ResponseWriter
	id string
}

func (s *store) Save(sess session.Session) error {
	if s.id != "" && s.id != sess.ID {
		s.p.sessions.Delete(s.id)
	}
	s.id = sess.ID
	s.p.sessions.Set(sess.ID, sess, cache.NoExpiration)
	http.SetCookie(s.w, s.p.cookie.NewCookie(sess.ID))
	return nil
}

func (s *store) Load() (session.Session, bool) {
	if s.id == "" {
		return session.Session{}, false
	}
	v, ok := s.p.sessions.Get(s.id)
	if !ok {
		return session.Session{}, false
	}
	sess, ok := v.(session.Session)
	return sess, ok && sess.LoggedIn()
}

func (s *store) Clear() error {
	if s.id != "" {
		s.p.sessions.Delete(s.id)
		s.id = ""
	}
	http.SetCookie(s.w, s.p.cookie.NewCookie(""))
	return nil
}
