package ui

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"streamplot/internal/fetch"
	"streamplot/internal/series"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestModel(t *testing.T, opts fetch.Options) Model {
	t.Helper()
	if opts.Stdin == nil {
		opts.Stdin = strings.NewReader("")
	}
	loop := fetch.NewLoop(opts, zap.NewNop())
	t.Cleanup(loop.Stop)

	m := NewModel(loop, Options{Title: "stdin", Theme: DarkTheme(), History: 4})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 16})
	return updated.(Model)
}

func apply(m Model, events ...fetch.Event) Model {
	updated, _ := m.Update(fetchEventsMsg{events: events, ok: true})
	return updated.(Model)
}

func press(m Model, msg tea.KeyMsg) Model {
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelShowsSpinnerUntilData(t *testing.T) {
	m := newTestModel(t, fetch.Options{})
	assert.Contains(t, m.View(), "waiting for data")

	m = apply(m, fetch.DataSetCreated{Set: &series.SeriesSet{Series: []series.Series{{Title: "v"}}}})
	assert.NotContains(t, m.View(), "waiting for data")
}

func TestModelAppendsStreamedRows(t *testing.T) {
	m := newTestModel(t, fetch.Options{})
	m = apply(m,
		fetch.DataSetCreated{Set: &series.SeriesSet{Series: []series.Series{{Title: "v"}}}},
		fetch.SliceAppended{Slice: series.Slice{Values: []float64{1}}},
		fetch.SliceAppended{Slice: series.Slice{Values: []float64{2}}},
	)

	require.Len(t, m.datasets, 1)
	assert.Equal(t, []float64{1, 2}, m.datasets[0].Series[0].Values)
	assert.True(t, hasBraille(m.View()), m.View())
}

func TestModelRowBeforeHeaderIsDropped(t *testing.T) {
	m := newTestModel(t, fetch.Options{})
	m = apply(m, fetch.SliceAppended{Slice: series.Slice{Values: []float64{1}}})
	assert.Empty(t, m.datasets)
}

func TestModelHistoryNavigation(t *testing.T) {
	m := newTestModel(t, fetch.Options{})
	for i := 0; i < 3; i++ {
		e := strconv.Itoa(i)
		m = apply(m, fetch.DataSetReady{Set: &series.SeriesSet{
			Epoch:  &e,
			Series: []series.Series{{Title: "v", Values: []float64{float64(i)}}},
		}})
	}
	require.Len(t, m.datasets, 3)
	assert.Equal(t, 2, m.cursor)
	assert.True(t, m.live)
	assert.Contains(t, m.View(), "3/3 live")

	m = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 1, m.cursor)
	assert.False(t, m.live)
	assert.Contains(t, m.View(), "2/3 held")
	assert.Contains(t, m.View(), "epoch 1")

	// New arrivals must not move a held cursor.
	e := "9"
	m = apply(m, fetch.DataSetReady{Set: &series.SeriesSet{Epoch: &e}})
	assert.Equal(t, 1, m.cursor)
	assert.False(t, m.live)

	m = press(m, tea.KeyMsg{Type: tea.KeyEnd})
	assert.True(t, m.live)
	assert.Equal(t, 3, m.cursor)
	assert.Contains(t, m.View(), "epoch 9")
}

func TestModelOlderStopsAtFirstDataset(t *testing.T) {
	m := newTestModel(t, fetch.Options{})
	m = apply(m, fetch.DataSetReady{Set: &series.SeriesSet{}})

	m = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 0, m.cursor)
	assert.True(t, m.live)
}

func TestModelTrimsHistory(t *testing.T) {
	m := newTestModel(t, fetch.Options{})
	for i := 0; i < 7; i++ {
		m = apply(m, fetch.DataSetReady{Set: &series.SeriesSet{}})
	}
	assert.Len(t, m.datasets, 4)
	assert.Equal(t, 3, m.cursor)
}

func TestModelSnapshotReplacesLatest(t *testing.T) {
	m := newTestModel(t, fetch.Options{Refresh: time.Second})
	require.Equal(t, fetch.Snapshot, m.mode)

	for i := 0; i < 3; i++ {
		m = apply(m, fetch.DataSetReady{Set: &series.SeriesSet{
			Series: []series.Series{{Title: "v", Values: []float64{float64(i)}}},
		}})
	}
	require.Len(t, m.datasets, 1)
	assert.Equal(t, []float64{2}, m.datasets[0].Series[0].Values)
}

func TestModelShowsAndClearsFailure(t *testing.T) {
	m := newTestModel(t, fetch.Options{})
	m = apply(m, fetch.FetchFailed{Err: errors.New("read: boom")})
	assert.Contains(t, m.View(), "read: boom")

	m = apply(m, fetch.DataSetCreated{Set: &series.SeriesSet{Series: []series.Series{{Title: "v"}}}})
	assert.NotContains(t, m.View(), "boom")
}

func TestModelPauseToggle(t *testing.T) {
	m := newTestModel(t, fetch.Options{})
	m = press(m, runes("p"))
	assert.True(t, m.paused)
	assert.Contains(t, m.View(), "paused")

	m = press(m, runes("p"))
	assert.False(t, m.paused)
}

func TestModelQuitKey(t *testing.T) {
	m := newTestModel(t, fetch.Options{})
	updated, cmd := m.Update(runes("q"))

	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, updated.(Model).View())
}

func TestModelQuitsWhenEventsClose(t *testing.T) {
	m := newTestModel(t, fetch.Options{})
	_, cmd := m.Update(fetchEventsMsg{ok: false})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModelRefreshTickFetches(t *testing.T) {
	m := newTestModel(t, fetch.Options{Refresh: 10 * time.Millisecond})

	updated, cmd := m.Update(refreshTickMsg{at: time.Now()})
	m = updated.(Model)
	require.NotNil(t, cmd, "tick must re-arm itself")

	select {
	case ev := <-m.loop.Events():
		assert.IsType(t, fetch.DataSetReady{}, ev)
	case <-time.After(5 * time.Second):
		t.Fatal("tick did not schedule a pass")
	}
}

func TestModelRefreshTickSkipsWhilePaused(t *testing.T) {
	m := newTestModel(t, fetch.Options{Refresh: 10 * time.Millisecond})
	m = press(m, runes("p"))

	updated, _ := m.Update(refreshTickMsg{at: time.Now()})
	m = updated.(Model)

	select {
	case ev := <-m.loop.Events():
		t.Fatalf("pass ran while paused: %#v", ev)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWaitForEventsBatchesBurst(t *testing.T) {
	ch := make(chan fetch.Event, 8)
	ch <- fetch.DataSetCreated{Set: &series.SeriesSet{}}
	ch <- fetch.SliceAppended{}
	ch <- fetch.SliceAppended{}

	msg := waitForEventsCmd(ch)().(fetchEventsMsg)
	assert.True(t, msg.ok)
	assert.Len(t, msg.events, 3)
}

func TestWaitForEventsReportsClosedChannel(t *testing.T) {
	ch := make(chan fetch.Event)
	close(ch)

	msg := waitForEventsCmd(ch)().(fetchEventsMsg)
	assert.False(t, msg.ok)
}
