// Package filesession keeps the command-line session in a JSON file.
package filesession

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/tneregistro/portal/core/session"
)

type Store struct {
	path string
}

var _ session.Store = (*Store)(nil)

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

func (s *Store) Save(sess session.Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	if err = os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "creating session dir")
	}

	// write then rename, so a reader never sees half a file
	tmp := s.path + ".tmp"
	if err = ioutil.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "writing session")
	}
	return errors.Wrap(os.Rename(tmp, s.path), "replacing session")
}

// Load returns the saved session. A missing or unreadable file is no session.
func (s *Store) Load() (session.Session, bool) {
	data, err := ioutil.ReadFile(s.path)
	if err != nil {
		return session.Session{}, false
	}
	var sess session.Session
	if err = json.Unmarshal(data, &sess); err != nil || !sess.LoggedIn() {
		return session.Session{}, false
	}
	return sess, true
}

func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing session")
	}
	return nil
}
