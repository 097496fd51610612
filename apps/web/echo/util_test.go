package echoweb

import (
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/tneregistro/portal/core"
	"github.com/tneregistro/portal/core/session"
	logsvc "github.com/tneregistro/portal/services/logger"
	"github.com/tneregistro/portal/services/tneapi"
	jwtsession "github.com/tneregistro/portal/storage/session/jwtcookie"
	memsession "github.com/tneregistro/portal/storage/session/inmem"
	"github.com/tneregistro/portal/tests"
)

const testCSRF = "test-csrf-token"

func testConfig(backendURL, store string) *core.Config {
	return &core.Config{
		Env:       "TEST",
		TestMode:  true,
		Build:     "test",
		SecretKey: "test-secret",
		Location:  time.UTC,
		Server:    core.ServerConfig{DisableReqLogs: true},
		Backend: core.BackendConfig{
			BaseURL:        backendURL,
			LoginTimeout:   300 * time.Millisecond,
			RequestTimeout: 2 * time.Second,
		},
		Session: core.SessionConfig{
			Store:      store,
			CookieName: "tne_session",
		},
		RosterViewTTL: time.Minute,
	}
}

func setup(t *testing.T, store ...string) (*Server, *testutil.FakeBackend) {
	fb := testutil.NewFakeBackend(t)

	kind := core.SessionStoreCookie
	if len(store) > 0 {
		kind = store[0]
	}
	conf := testConfig(fb.URL, kind)

	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	logger.Enable(false)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	var sessions session.Provider
	if kind == core.SessionStoreMemory {
		sessions = memsession.NewProvider(conf)
	} else {
		sessions = jwtsession.NewProvider(conf)
	}

	reg := prometheus.NewRegistry()
	server := NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Backend:    tneapi.NewClient(conf, tneapi.NewMetrics(reg)),
		Sessions:   sessions,
		Validate:   validate,
		Translator: translator,
		Gatherer:   reg,
	})
	return server, fb
}

// browser keeps cookies between requests.
type browser struct {
	t   *testing.T
	app http.Handler
	jar map[string]*http.Cookie
}

func newBrowser(t *testing.T, app http.Handler) *browser {
	return &browser{
		t:   t,
		app: app,
		jar: map[string]*http.Cookie{
			csrfField: {Name: csrfField, Value: testCSRF},
		},
	}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.jar {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.app.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.jar, c.Name)
			continue
		}
		b.jar[c.Name] = c
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// post submits form with a valid CSRF token.
func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	if form.Get(csrfField) == "" {
		form.Set(csrfField, testCSRF)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) login(email string) *httptest.ResponseRecorder {
	return b.post("/login", url.Values{"email": {email}})
}

func checkRedirect(t *testing.T, rec *httptest.ResponseRecorder, wantLocation string) {
	t.Helper()
	assert.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, wantLocation, rec.Header().Get("Location"))
}

func checkPage(t *testing.T, rec *httptest.ResponseRecorder, wantCode int, wantContains ...string) {
	t.Helper()
	if rec.Code != wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, wantCode)
	}
	body := rec.Body.String()
	for _, s := range wantContains {
		assert.Contains(t, body, s)
	}
}
