package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

// Backend paths.
const (
	PathLogin    = "/login"
	PathStudents = "/alumnos"
	PathDeliver  = "/entregar"
	PathStats    = "/dashboard/stats"
	PathReport   = "/download-excel"
)

type Row = map[string]interface{}

// FakeBackend is an in-process stand-in for the delivery backend.
// Fields may be changed between requests; every handler takes the lock.
type FakeBackend struct {
	*httptest.Server

	mu      sync.Mutex
	Roles   map[string]string // email -> role
	Rows    []Row
	Stats   map[string]interface{}
	Report  []byte
	Calls   map[string]int
	Fail    map[string]int           // path -> forced status code
	Raw     map[string]string        // path -> raw 200 body
	Delay   map[string]time.Duration // path -> delay before answering
	LastReq map[string]Row           // path -> last decoded JSON body
}

// NewFakeBackend starts a backend seeded with DefaultRows and DefaultStats. It is closed when the test ends.
func NewFakeBackend(t *testing.T) *FakeBackend {
	fb := &FakeBackend{
		Roles: map[string]string{
			"admin@iplacex.cl": "admin",
			"tutor@iplacex.cl": "tutor",
		},
		Rows:    DefaultRows(),
		Stats:   DefaultStats(),
		Report:  []byte("PK\x03\x04fake-xlsx"),
		Calls:   make(map[string]int),
		Fail:    make(map[string]int),
		Raw:     make(map[string]string),
		Delay:   make(map[string]time.Duration),
		LastReq: make(map[string]Row),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(fb.intercept)
	e.POST(PathLogin, fb.login)
	e.GET(PathStudents, fb.students)
	e.POST(PathDeliver, fb.deliver)
	e.GET(PathStats, fb.stats)
	e.GET(PathReport, fb.report)

	fb.Server = httptest.NewServer(e)
	t.Cleanup(fb.Server.Close)
	return fb
}

func DefaultRows() []Row {
	return []Row{
		{"Folio": "123", "RUT": "11111111", "DigitoVerificador": "1", "NOMBRE COMPLETO": "ANA PÉREZ", "EntregadoStatus": "PENDIENTE DE ENTREGA", "Responsable": nil, "FechaEntrega": nil},
		{"Folio": "456", "RUT": "22222222", "DigitoVerificador": "2", "NOMBRE COMPLETO": "BRUNO DÍAZ", "EntregadoStatus": "PENDIENTE DE ENTREGA", "Responsable": nil, "FechaEntrega": nil},
		{"Folio": 789, "RUT": "33333333", "DigitoVerificador": "K", "NOMBRE COMPLETO": "CARLA SOTO", "EntregadoStatus": "ENTREGADA", "Responsable": "MARÍA", "FechaEntrega": "2024-03-01 10:22:00"},
	}
}

func DefaultStats() map[string]interface{} {
	return map[string]interface{}{
		"status":               "ok",
		"total_registros":      3,
		"entregados_total":     1,
		"pendientes_total":     2,
		"entregados_hoy":       0,
		"porcentaje_entregado": 33.3,
		"ranking":              []Row{{"nombre": "MARÍA", "cantidad": 1}},
		"historial":            []Row{{"fecha": "2024-03-01", "cantidad": 1}},
	}
}

// CallCount returns how many requests reached path.
func (fb *FakeBackend) CallCount(path string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.Calls[path]
}

// Set runs fn under the backend lock.
func (fb *FakeBackend) Set(fn func(fb *FakeBackend)) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fn(fb)
}

// Request returns the last JSON body posted to path.
func (fb *FakeBackend) Request(path string) Row {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.LastReq[path]
}

func (fb *FakeBackend) intercept(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Path()
		fb.mu.Lock()
		fb.Calls[path]++
		delay := fb.Delay[path]
		status := fb.Fail[path]
		raw, hasRaw := fb.Raw[path]
		fb.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-c.Request().Context().Done():
				return nil
			}
		}
		if status != 0 {
			return c.JSON(status, echo.Map{"detail": http.StatusText(status)})
		}
		if hasRaw {
			return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(raw))
		}
		return next(c)
	}
}

func (fb *FakeBackend) login(c echo.Context) error {
	var body Row
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "body inválido"})
	}
	email, _ := body["email"].(string)

	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.LastReq[PathLogin] = body
	role, ok := fb.Roles[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Correo no autorizado."})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "role": role})
}

func (fb *FakeBackend) students(c echo.Context) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return c.JSON(http.StatusOK, echo.Map{"rows": fb.Rows})
}

func (fb *FakeBackend) deliver(c echo.Context) error {
	var body Row
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "body inválido"})
	}
	folio, _ := body["folio"].(string)
	rut, _ := body["rut"].(string)
	responsable, _ := body["responsable"].(string)

	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.LastReq[PathDeliver] = body
	if responsable == "" || (folio == "" && rut == "") {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "Falta datos"})
	}
	for _, row := range fb.Rows {
		if (folio != "" && cellString(row["Folio"]) == folio) || (rut != "" && cellString(row["RUT"]) == rut) {
			row["EntregadoStatus"] = "ENTREGADA"
			row["Responsable"] = strings.ToUpper(responsable)
			row["FechaEntrega"] = "2024-03-05 09:15:00"
			return c.JSON(http.StatusOK, echo.Map{"status": "ok", "updated": row})
		}
	}
	return c.JSON(http.StatusNotFound, echo.Map{"detail": "No encontrado"})
}

func (fb *FakeBackend) stats(c echo.Context) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return c.JSON(http.StatusOK, fb.Stats)
}

func (fb *FakeBackend) report(c echo.Context) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="Reporte_TNE_Completo.xlsx"`)
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", fb.Report)
}

func cellString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	}
	return ""
}
