package stats

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tneregistro/portal/core"
)

type fakeClient struct {
	snapshot Snapshot
	err      error
	calls    int
}

func (c *fakeClient) GetStatistics(context.Context) (Snapshot, error) {
	c.calls++
	return c.snapshot, c.err
}

func sampleSnapshot() Snapshot {
	return Snapshot{
		Status:              "ok",
		TotalRegistros:      1250,
		EntregadosTotal:     566,
		PendientesTotal:     684,
		EntregadosHoy:       12,
		PorcentajeEntregado: 45.3,
		Ranking: []RankEntry{
			{Nombre: "MARÍA JOSÉ", Cantidad: 200},
			{Nombre: "pedro", Cantidad: 150},
			{Nombre: "Ana", Cantidad: 100},
			{Nombre: "luis", Cantidad: 60},
			{Nombre: "sofía", Cantidad: 56},
		},
		Historial: []DayCount{
			{Fecha: "2024-03-01", Cantidad: 10},
			{Fecha: "2024-03-02", Cantidad: 0},
			{Fecha: "2024-03-04", Cantidad: 20},
		},
	}
}

func TestView_Mount(t *testing.T) {
	t.Run("fetches once", func(t *testing.T) {
		c := &fakeClient{snapshot: sampleSnapshot()}
		v := NewView(c)
		require.NoError(t, v.Mount(context.Background()))
		require.NoError(t, v.Mount(context.Background()))
		assert.Equal(t, 1, c.calls)
		assert.Equal(t, 1250, v.Snapshot().TotalRegistros)
	})

	t.Run("status not ok", func(t *testing.T) {
		s := sampleSnapshot()
		s.Status = "error"
		v := NewView(&fakeClient{snapshot: s})
		assert.Equal(t, ErrStatusNotOK, v.Mount(context.Background()))
	})

	t.Run("backend failure", func(t *testing.T) {
		v := NewView(&fakeClient{err: core.ErrConnection})
		err := v.Mount(context.Background())
		assert.Equal(t, core.ErrConnection, errors.Cause(err))
	})
}

func TestView_Cards(t *testing.T) {
	v := NewView(&fakeClient{snapshot: sampleSnapshot()})
	require.NoError(t, v.Mount(context.Background()))

	cards := v.Cards()
	require.Len(t, cards, 4)
	assert.Equal(t, "1.250", cards[0].Value)
	assert.Equal(t, "566", cards[1].Value)
	assert.Equal(t, "Avance: 45,3%.", cards[1].Description)
	assert.Equal(t, "684", cards[2].Value)
	assert.Equal(t, "12", cards[3].Value)
}

func TestView_Ranking(t *testing.T) {
	v := NewView(&fakeClient{snapshot: sampleSnapshot()})
	require.NoError(t, v.Mount(context.Background()))

	require.True(t, v.HasRanking())
	got := v.Ranking()
	require.Len(t, got, 5)
	assert.Equal(t, Rank{Medal: "🥇", Nombre: "María José", Cantidad: "200"}, got[0])
	assert.Equal(t, "🥈", got[1].Medal)
	assert.Equal(t, "Pedro", got[1].Nombre)
	assert.Equal(t, "🥉", got[2].Medal)
	assert.Equal(t, "👤", got[3].Medal)
	assert.Equal(t, "👤", got[4].Medal)
}

func TestView_EmptyStates(t *testing.T) {
	v := NewView(&fakeClient{snapshot: Snapshot{Status: "ok"}})
	require.NoError(t, v.Mount(context.Background()))

	assert.False(t, v.HasRanking())
	assert.False(t, v.HasHistory())
	assert.Empty(t, v.Ranking())
	assert.Empty(t, v.Chart().Bars)
	assert.Equal(t, "0", v.Cards()[0].Value)
}

func TestChart(t *testing.T) {
	c := NewChart(sampleSnapshot().Historial)
	assert.Equal(t, 300, c.Width)
	assert.Equal(t, 20, c.Max)
	require.Len(t, c.Bars, 3)

	assert.Equal(t, "03/01", c.Bars[0].Label)
	assert.True(t, c.Bars[0].ShowLabel)
	assert.False(t, c.Bars[1].ShowLabel)
	assert.Equal(t, 0.0, c.Bars[1].Height)
	assert.Equal(t, float64(plotBottom-plotTop), c.Bars[2].Height)
	assert.InDelta(t, c.Bars[2].Height/2, c.Bars[0].Height, 0.0001)
	assert.Less(t, c.Bars[0].X, c.Bars[1].X)
}

func TestChartWidth(t *testing.T) {
	assert.Equal(t, 300, ChartWidth(0))
	assert.Equal(t, 300, ChartWidth(15))
	assert.Equal(t, 600, ChartWidth(30))
}

func TestTickLabel(t *testing.T) {
	assert.Equal(t, "03/05", TickLabel("2024-03-05"))
	assert.Equal(t, "hoy", TickLabel("hoy"))
}
