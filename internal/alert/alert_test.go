package alert

import (
	"context"
	"os"
	"path/filepath"
	"price-alert-bot/internal/types"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeSeries struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls []string
}

func (f *fakeSeries) FetchSeries(ctx context.Context, asset types.Asset, days int) ([]types.PriceReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, asset.ID)
	if f.fail[asset.ID] {
		return nil, errors.New("series unavailable")
	}
	return []types.PriceReading{
		{Asset: asset, Timestamp: at.Add(-time.Hour), Value: 100},
		{Asset: asset, Timestamp: at, Value: 110},
	}, nil
}

type fakeRenderer struct {
	err  error
	reqs []types.ChartRequest
	sets []int
}

func (f *fakeRenderer) Render(req types.ChartRequest, series ...[]types.PriceReading) ([]byte, error) {
	f.reqs = append(f.reqs, req)
	f.sets = append(f.sets, len(series))
	if f.err != nil {
		return nil, f.err
	}
	return []byte("\x89PNG-" + string(req.Mode)), nil
}

type notification struct {
	text  string
	image []byte
}

type fakeNotifier struct {
	err  error
	sent []notification
}

func (f *fakeNotifier) Notify(ctx context.Context, text string, image []byte) error {
	f.sent = append(f.sent, notification{text: text, image: image})
	return f.err
}

type journaled struct {
	event     types.AlertEvent
	delivered bool
}

type fakeJournal struct {
	entries []journaled
}

func (f *fakeJournal) RecordAlert(ctx context.Context, ev types.AlertEvent, delivered bool) error {
	f.entries = append(f.entries, journaled{event: ev, delivered: delivered})
	return nil
}

type fixture struct {
	series   *fakeSeries
	renderer *fakeRenderer
	notifier *fakeNotifier
	journal  *fakeJournal
	dir      string
	d        *Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	f := &fixture{
		series:   &fakeSeries{fail: map[string]bool{}},
		renderer: &fakeRenderer{},
		notifier: &fakeNotifier{},
		journal:  &fakeJournal{},
		dir:      t.TempDir(),
	}
	f.d = NewDispatcher(Config{
		Source:    f.series,
		Renderer:  f.renderer,
		Notifier:  f.notifier,
		Journal:   f.journal,
		ChartDays: 1,
		ImageDir:  f.dir,
		Logger:    logger,
	})
	return f
}

func drop() types.AlertEvent {
	return types.AlertEvent{
		Asset:     types.Monero,
		Direction: types.Down,
		Magnitude: 7,
		Previous:  150,
		Current:   143,
		At:        at,
	}
}

func TestDispatchStartup(t *testing.T) {
	f := newFixture(t)
	readings := map[string]types.PriceReading{
		"monero": {Asset: types.Monero, Timestamp: at, Value: 150.25},
		"zcash":  {Asset: types.Zcash, Timestamp: at, Value: 40},
	}

	require.NoError(t, f.d.DispatchStartup(context.Background(), readings))

	require.Len(t, f.renderer.reqs, 1)
	assert.Equal(t, types.ChartStartup, f.renderer.reqs[0].Mode)
	assert.Equal(t, 2, f.renderer.sets[0], "both assets on one chart")
	assert.ElementsMatch(t, []string{"monero", "zcash"}, f.series.calls)

	require.Len(t, f.notifier.sent, 1)
	n := f.notifier.sent[0]
	assert.Equal(t, "[+] started\n\n[*] XMR price: $150.25\n[*] ZEC price: $40.00", n.text)
	assert.Equal(t, []byte("\x89PNG-startup"), n.image)

	data, err := os.ReadFile(filepath.Join(f.dir, startupChartName))
	require.NoError(t, err)
	assert.Equal(t, n.image, data)
	assert.Empty(t, f.journal.entries, "startup is not an alert")
}

func TestDispatchAlertSingleChart(t *testing.T) {
	f := newFixture(t)
	other := types.PriceReading{Asset: types.Zcash, Timestamp: at, Value: 40}

	require.NoError(t, f.d.DispatchAlert(context.Background(), drop(), other))

	assert.Equal(t, []string{"monero"}, f.series.calls, "only the triggering asset is charted")
	require.Len(t, f.renderer.reqs, 1)
	assert.Equal(t, types.ChartRequest{Mode: types.ChartSingle, Asset: types.Monero}, f.renderer.reqs[0])

	require.Len(t, f.notifier.sent, 1)
	n := f.notifier.sent[0]
	assert.Equal(t, "[!] monero (XMR) ↓ dropped by $7.00, current price $143.00", n.text)
	assert.NotContains(t, n.text, "ZEC")
	assert.NotNil(t, n.image)

	assert.FileExists(t, filepath.Join(f.dir, "monero.png"))

	require.Len(t, f.journal.entries, 1)
	assert.True(t, f.journal.entries[0].delivered)
}

func TestDispatchAlertRenderFailureSendsText(t *testing.T) {
	f := newFixture(t)
	f.renderer.err = errors.New("no font")

	require.NoError(t, f.d.DispatchAlert(context.Background(), drop(), types.PriceReading{}))

	require.Len(t, f.notifier.sent, 1)
	assert.Nil(t, f.notifier.sent[0].image)
	assert.Contains(t, f.notifier.sent[0].text, "dropped by $7.00")
	assert.NoFileExists(t, filepath.Join(f.dir, "monero.png"))
}

func TestDispatchAlertSeriesFailureSendsText(t *testing.T) {
	f := newFixture(t)
	f.series.fail["monero"] = true

	require.NoError(t, f.d.DispatchAlert(context.Background(), drop(), types.PriceReading{}))

	assert.Empty(t, f.renderer.reqs)
	require.Len(t, f.notifier.sent, 1)
	assert.Nil(t, f.notifier.sent[0].image)
}

func TestDispatchAlertNotifyFailure(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("chat not found")

	err := f.d.DispatchAlert(context.Background(), drop(), types.PriceReading{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "XMR alert notification")
	assert.Len(t, f.notifier.sent, 1, "never retried")

	require.Len(t, f.journal.entries, 1)
	assert.False(t, f.journal.entries[0].delivered)
}

func TestOverviewNilWhenAnySeriesFails(t *testing.T) {
	f := newFixture(t)
	f.series.fail["zcash"] = true

	assert.Nil(t, f.d.Overview(context.Background()))
	assert.Empty(t, f.renderer.reqs)
}

func TestMoveMessageUp(t *testing.T) {
	ev := types.AlertEvent{Asset: types.Zcash, Direction: types.Up, Magnitude: 1234.5, Current: 5678.901}
	assert.Equal(t, "[!] zcash (ZEC) ↑ increased by $1,234.50, current price $5,678.90", MoveMessage(ev))
}

func TestStartupMessageSkipsMissingAssets(t *testing.T) {
	text := StartupMessage(map[string]types.PriceReading{
		"zcash": {Asset: types.Zcash, Value: 41.5},
	})
	assert.Equal(t, "[+] started\n\n[*] ZEC price: $41.50", text)
}
