package echoweb

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tneregistro/portal/tests"
)

func TestDashboard(t *testing.T) {
	app, fb := setup(t)
	b := newBrowser(t, app)
	b.login("tutor@iplacex.cl")

	rec := b.get("/dashboard")
	checkPage(t, rec, http.StatusOK, "ANA PÉREZ", "BRUNO DÍAZ", "CARLA SOTO", "Mostrando 3 registros", "María", "2024-03-01")
	assert.Equal(t, 1, fb.CallCount(testutil.PathStudents))

	t.Run("search filters the loaded list", func(t *testing.T) {
		rec := b.get("/dashboard?q=456")
		checkPage(t, rec, http.StatusOK, "BRUNO DÍAZ", "Mostrando 1 registros")
		assert.NotContains(t, rec.Body.String(), "ANA PÉREZ")

		checkPage(t, b.get("/dashboard?q=zzz"), http.StatusOK, "No se encontraron alumnos.", "Mostrando 0 registros")
		checkPage(t, b.get("/dashboard?q=p%C3%A9rez"), http.StatusOK, "ANA PÉREZ", "Mostrando 1 registros")
		assert.Equal(t, 1, fb.CallCount(testutil.PathStudents))
	})

	t.Run("refresh fetches again", func(t *testing.T) {
		b.get("/dashboard?refresh=1")
		assert.Equal(t, 2, fb.CallCount(testutil.PathStudents))
	})
}

func TestDashboard_BackendDown(t *testing.T) {
	app, fb := setup(t)
	b := newBrowser(t, app)
	b.login("tutor@iplacex.cl")
	fb.Set(func(fb *testutil.FakeBackend) { fb.Fail[testutil.PathStudents] = http.StatusServiceUnavailable })

	checkPage(t, b.get("/dashboard"), http.StatusOK, "Error al cargar los datos. Verifica el backend.", "Mostrando 0 registros")
}

func TestDashboard_MalformedRows(t *testing.T) {
	app, fb := setup(t)
	b := newBrowser(t, app)
	b.login("tutor@iplacex.cl")
	fb.Set(func(fb *testutil.FakeBackend) { fb.Raw[testutil.PathStudents] = `{"rows":"x"}` })

	rec := b.get("/dashboard")
	checkPage(t, rec, http.StatusOK, "No se encontraron alumnos.")
	assert.NotContains(t, rec.Body.String(), "Error al cargar")
}

func TestDeliver(t *testing.T) {
	tests := []struct {
		name         string
		form         url.Values
		wantLocation string
		wantFlash    string
		wantCalls    int
	}{
		{
			name:         "by folio",
			form:         url.Values{"folio": {"123"}, "responsable": {"Ana"}, "q": {"ana"}},
			wantLocation: "/dashboard?q=ana&responsable=Ana",
			wantFlash:    "✅ ¡Entrega registrada para ANA PÉREZ!",
			wantCalls:    1,
		},
		{
			name:         "by rut",
			form:         url.Values{"rut": {"22222222"}, "responsable": {"Ana"}},
			wantLocation: "/dashboard?q=&responsable=Ana",
			wantFlash:    "✅ ¡Entrega registrada para BRUNO DÍAZ!",
			wantCalls:    1,
		},
		{
			name:         "blank responsable",
			form:         url.Values{"folio": {"123"}, "responsable": {"  "}},
			wantLocation: "/dashboard?q=&responsable=",
			wantFlash:    "Debes ingresar tu nombre como responsable",
			wantCalls:    0,
		},
		{
			name:         "already delivered",
			form:         url.Values{"folio": {"789"}, "responsable": {"Ana"}},
			wantLocation: "/dashboard?q=&responsable=Ana",
			wantFlash:    "Esta TNE ya fue entregada.",
			wantCalls:    0,
		},
		{
			name:         "not found",
			form:         url.Values{"folio": {"999"}, "responsable": {"Ana"}},
			wantLocation: "/dashboard?q=&responsable=Ana",
			wantFlash:    "Error: No encontrado",
			wantCalls:    1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, fb := setup(t)
			b := newBrowser(t, app)
			b.login("tutor@iplacex.cl")
			require.Equal(t, http.StatusOK, b.get("/dashboard").Code)

			rec := b.post("/dashboard/entregar", tt.form)
			checkRedirect(t, rec, tt.wantLocation)
			assert.Equal(t, tt.wantCalls, fb.CallCount(testutil.PathDeliver))

			rec = b.get(tt.wantLocation)
			checkPage(t, rec, http.StatusOK, tt.wantFlash)

			// shown once
			assert.NotContains(t, b.get(tt.wantLocation).Body.String(), tt.wantFlash)
		})
	}
}

func TestDeliver_NoStalePendingRow(t *testing.T) {
	app, fb := setup(t)
	b := newBrowser(t, app)
	b.login("tutor@iplacex.cl")
	b.get("/dashboard")

	// the list cannot be fetched again after the delivery
	fb.Set(func(fb *testutil.FakeBackend) { fb.Fail[testutil.PathStudents] = http.StatusServiceUnavailable })
	b.post("/dashboard/entregar", url.Values{"folio": {"123"}, "responsable": {"Ana"}})
	assert.Equal(t, 2, fb.CallCount(testutil.PathStudents))

	rec := b.get("/dashboard?q=123")
	checkPage(t, rec, http.StatusOK, "Mostrando 1 registros", "Entregada", "Ana")
	assert.NotContains(t, rec.Body.String(), ">Marcar<")
}
