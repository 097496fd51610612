package roster

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Delivery statuses as written by the backend.
const (
	StatusDelivered = "ENTREGADA"
	StatusPending   = "PENDIENTE DE ENTREGA"
)

// Text is a string cell that also accepts JSON numbers, booleans and null.
// Spreadsheet-backed rows are not consistently typed.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(data) // number or bool, as written
	return nil
}

func (t Text) String() string { return strings.TrimSpace(string(t)) }

// StudentRecord is one roster row.
type StudentRecord struct {
	Folio             Text `json:"Folio"`
	RUT               Text `json:"RUT"`
	DigitoVerificador Text `json:"DigitoVerificador"`
	GuiaDespacho      Text `json:"GuiaDespacho"`
	NumeroGuia        Text `json:"NumeroGuia"`
	NombreCompleto    Text `json:"NOMBRE COMPLETO"`
	Mail              Text `json:"Mail"`
	Responsable       Text `json:"Responsable"`
	FechaEntrega      Text `json:"FechaEntrega"`
	EntregadoStatus   Text `json:"EntregadoStatus"`
}

// Delivered reports whether the card has been handed out.
func (r StudentRecord) Delivered() bool {
	return strings.ToUpper(r.EntregadoStatus.String()) == StatusDelivered
}

// Status normalizes EntregadoStatus to one of StatusDelivered or StatusPending.
func (r StudentRecord) Status() string {
	if r.Delivered() {
		return StatusDelivered
	}
	return StatusPending
}

// FechaEntregaDay is the date part of FechaEntrega ("2024-03-01 10:22:00" -> "2024-03-01").
func (r StudentRecord) FechaEntregaDay() string {
	return strings.SplitN(r.FechaEntrega.String(), " ", 2)[0]
}

// Matches reports whether other designates the same student: same folio, or same RUT.
func (r StudentRecord) Matches(other StudentRecord) bool {
	if f := r.Folio.String(); f != "" && f == other.Folio.String() {
		return true
	}
	if rut := r.RUT.String(); rut != "" && rut == other.RUT.String() {
		return true
	}
	return false
}

// Key identifies the record in forms: its folio, else its RUT.
func (r StudentRecord) Key() string {
	if f := r.Folio.String(); f != "" {
		return f
	}
	return r.RUT.String()
}

// DeliveryRequest is the form submitted to mark a card as delivered.
type DeliveryRequest struct {
	Folio       string `form:"folio" json:"folio"`
	RUT         string `form:"rut" json:"rut"`
	Responsable string `form:"responsable" json:"responsable" validate:"notblank"`
}
