package roster

import (
	"context"
	"strings"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/tneregistro/portal/core"
)

var (
	// errors
	ErrMissingResponsable = errors.New("Debes ingresar tu nombre como responsable.")
	ErrMissingIdentifier  = errors.New("Falta el folio o RUT del alumno.")
)

// Client is the part of the backend the roster needs.
type Client interface {
	ListStudents(ctx context.Context) ([]StudentRecord, error)
	RegisterDelivery(ctx context.Context, folio, rut, responsable string) (StudentRecord, error)
}

// View is the roster as seen by one staff session: the full list fetched on Mount and kept in memory.
// It is safe for concurrent use.
type View struct {
	client     Client
	validate   *validator.Validate
	translator ut.Translator

	mu      sync.RWMutex
	records []StudentRecord
	mounted bool
}

func NewView(client Client, validate *validator.Validate, translator ut.Translator) *View {
	return &View{
		client:     client,
		validate:   validate,
		translator: translator,
	}
}

// Mount fetches the full list. A malformed backend answer leaves an empty list and is not an error;
// any other failure keeps the previous list.
func (v *View) Mount(ctx context.Context) error {
	records, err := v.client.ListStudents(ctx)
	if err != nil && errors.Cause(err) != core.ErrMalformedResponse {
		return errors.Wrap(err, "listing students")
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.records = records
	v.mounted = true
	return nil
}

func (v *View) Mounted() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.mounted
}

// Len is the number of cached records.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.records)
}

// Filter applies Filter to the cached list.
func (v *View) Filter(term string) []StudentRecord {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Filter(v.records, term)
}

// Register marks a card as delivered by `responsable`.
// Nothing is sent to the backend when responsable is blank, when neither folio nor RUT is given,
// or when the cached record is already delivered.
// On success the list is fetched again; should that fail, the returned record is merged into the cache.
func (v *View) Register(ctx context.Context, req DeliveryRequest) (StudentRecord, error) {
	req.Folio = core.CleanString(req.Folio)
	req.RUT = core.CleanString(req.RUT)
	req.Responsable = core.CleanString(req.Responsable)

	if err := v.validate.Struct(req); err != nil {
		if vErr, ok := core.TranslateValidation(err, v.translator).(*core.ValidationError); ok {
			return StudentRecord{}, core.NewValidationError(ErrMissingResponsable, vErr.Fields...)
		}
		return StudentRecord{}, errors.Wrap(err, "validating delivery request")
	}
	if req.Folio == "" && req.RUT == "" {
		return StudentRecord{}, core.NewValidationError(ErrMissingIdentifier)
	}

	if cached, ok := v.find(req); ok {
		if err := checkDeliverable(ctx, cached); err != nil {
			return StudentRecord{}, err
		}
	}

	updated, err := v.client.RegisterDelivery(ctx, req.Folio, req.RUT, req.Responsable)
	if err != nil {
		return StudentRecord{}, errors.Wrap(err, "registering delivery")
	}

	if records, err := v.client.ListStudents(ctx); err == nil {
		v.mu.Lock()
		v.records = records
		v.mounted = true
		v.mu.Unlock()
	}
	v.merge(updated)
	return updated, nil
}

func (v *View) find(req DeliveryRequest) (StudentRecord, bool) {
	probe := StudentRecord{Folio: Text(req.Folio), RUT: Text(req.RUT)}
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, r := range v.records {
		if probe.Matches(r) {
			return r, true
		}
	}
	return StudentRecord{}, false
}

// merge replaces the cached rows designating the same student as updated.
// Rows the backend still lists as pending are overwritten, so no stale pending row survives a delivery.
func (v *View) merge(updated StudentRecord) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, r := range v.records {
		if updated.Matches(r) {
			v.records[i] = updated
		}
	}
}

// Filter returns the records whose folio, RUT or name contains term, ignoring case.
// An empty term returns every record.
func Filter(records []StudentRecord, term string) []StudentRecord {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]StudentRecord, 0, len(records))
	for _, r := range records {
		if term == "" ||
			strings.Contains(strings.ToLower(r.Folio.String()), term) ||
			strings.Contains(strings.ToLower(r.RUT.String()), term) ||
			strings.Contains(strings.ToLower(r.NombreCompleto.String()), term) {
			out = append(out, r)
		}
	}
	return out
}
