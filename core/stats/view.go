// Package stats renders the backend's delivery statistics: summary cards,
// the ranking of responsables and the delivery history chart.
package stats

import (
	"context"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrStatusNotOK is returned when the backend answers without status "ok".
var ErrStatusNotOK = errors.New("el backend no devolvió un estado OK")

// Chart geometry, in SVG user units.
const (
	ChartMinWidth = 300
	ChartSlot     = 20
	ChartHeight   = 260

	plotTop    = 5
	plotBottom = 240
	maxBarW    = 16
)

var medals = []string{"🥇", "🥈", "🥉"}

const defaultMedal = "👤"

type Client interface {
	GetStatistics(ctx context.Context) (Snapshot, error)
}

// Card is one summary tile.
type Card struct {
	Title       string
	Value       string
	Description string
	Icon        string
	Class       string
}

// Rank is a ranking row ready for display.
type Rank struct {
	Medal    string
	Nombre   string
	Cantidad string
}

// Bar is one day of history in the chart.
type Bar struct {
	X, Y, Width, Height float64
	LabelX              float64
	Label               string // MM/DD
	ShowLabel           bool
	Fecha               string
	Cantidad            int
}

// Chart is the history bar chart.
type Chart struct {
	Width  int
	Height int
	Base   float64
	Max    int
	Bars   []Bar
}

// View holds one statistics snapshot. A View is mounted once and never refetches.
type View struct {
	client   Client
	snapshot Snapshot
	mounted  bool
}

func NewView(client Client) *View {
	return &View{client: client}
}

// Mount fetches the snapshot. Calling it again is a no-op.
func (v *View) Mount(ctx context.Context) error {
	if v.mounted {
		return nil
	}
	s, err := v.client.GetStatistics(ctx)
	if err != nil {
		return errors.Wrap(err, "fetching statistics")
	}
	if s.Status != "ok" {
		return ErrStatusNotOK
	}
	v.snapshot = s
	v.mounted = true
	return nil
}

func (v *View) Snapshot() Snapshot { return v.snapshot }

// Cards returns the four summary tiles.
func (v *View) Cards() []Card {
	s := v.snapshot
	return []Card{
		{Title: "Total Registros", Value: FormatCount(s.TotalRegistros), Description: "Total alumnos.", Icon: "📚", Class: "purple"},
		{Title: "Entregadas", Value: FormatCount(s.EntregadosTotal), Description: "Avance: " + FormatPercent(s.PorcentajeEntregado) + ".", Icon: "✅", Class: "green"},
		{Title: "Pendientes", Value: FormatCount(s.PendientesTotal), Description: "Por retirar.", Icon: "⏳", Class: "yellow"},
		{Title: "Entregas Hoy", Value: FormatCount(s.EntregadosHoy), Description: "Gestión diaria.", Icon: "🚀", Class: "blue"},
	}
}

func (v *View) HasRanking() bool { return len(v.snapshot.Ranking) > 0 }

func (v *View) HasHistory() bool { return len(v.snapshot.Historial) > 0 }

// Ranking returns the ranking in backend order with medals for the first three.
func (v *View) Ranking() []Rank {
	title := cases.Title(language.Spanish)
	out := make([]Rank, 0, len(v.snapshot.Ranking))
	for i, r := range v.snapshot.Ranking {
		out = append(out, Rank{
			Medal:    Medal(i),
			Nombre:   title.String(strings.ToLower(strings.TrimSpace(r.Nombre))),
			Cantidad: FormatCount(r.Cantidad),
		})
	}
	return out
}

// Chart lays out the history as bars, one slot per day.
func (v *View) Chart() Chart {
	return NewChart(v.snapshot.Historial)
}

func NewChart(days []DayCount) Chart {
	c := Chart{Width: ChartWidth(len(days)), Height: ChartHeight, Base: plotBottom}
	if len(days) == 0 {
		return c
	}
	for _, d := range days {
		if d.Cantidad > c.Max {
			c.Max = d.Cantidad
		}
	}

	slot := float64(c.Width) / float64(len(days))
	barW := slot * 0.8
	if barW > maxBarW {
		barW = maxBarW
	}
	plotH := float64(plotBottom - plotTop)
	c.Bars = make([]Bar, 0, len(days))
	for i, d := range days {
		h := 0.0
		if c.Max > 0 && d.Cantidad > 0 {
			h = plotH * float64(d.Cantidad) / float64(c.Max)
		}
		x := float64(i)*slot + (slot-barW)/2
		c.Bars = append(c.Bars, Bar{
			X:         x,
			Y:         plotBottom - h,
			Width:     barW,
			Height:    h,
			LabelX:    x + barW/2,
			Label:     TickLabel(d.Fecha),
			ShowLabel: i%2 == 0,
			Fecha:     d.Fecha,
			Cantidad:  d.Cantidad,
		})
	}
	return c
}

// ChartWidth is max(300, 20·n).
func ChartWidth(n int) int {
	if w := n * ChartSlot; w > ChartMinWidth {
		return w
	}
	return ChartMinWidth
}

// TickLabel turns "YYYY-MM-DD" into "MM/DD". Other values are returned unchanged.
func TickLabel(fecha string) string {
	parts := strings.Split(fecha, "-")
	if len(parts) < 2 {
		return fecha
	}
	return strings.Join(parts[1:], "/")
}

func Medal(i int) string {
	if i >= 0 && i < len(medals) {
		return medals[i]
	}
	return defaultMedal
}

// FormatCount writes n with Spanish thousands separators (12.345).
func FormatCount(n int) string {
	return humanize.FormatInteger("#.###,", n)
}

// FormatPercent writes p with one decimal and a comma (45,3%).
func FormatPercent(p float64) string {
	return humanize.FormatFloat("#.###,#", p) + "%"
}
