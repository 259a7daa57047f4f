package wifiscan

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clearAndBanner = "\x1b[2J\x1b[;H\nStarting Wi-Fi Scan Task...\n"

type scanStep struct {
	results []ScanResult
	err     error
}

type stubRadio struct {
	powerOnErr  error
	steps       []scanStep
	powerOns    int
	scans       int
	capacities  []int
	hadDeadline bool
}

func (r *stubRadio) PowerOn(ctx context.Context) error {
	r.powerOns++
	return r.powerOnErr
}

func (r *stubRadio) Scan(ctx context.Context, capacity int) ([]ScanResult, error) {
	_, r.hadDeadline = ctx.Deadline()
	r.capacities = append(r.capacities, capacity)
	step := r.steps[r.scans%len(r.steps)]
	r.scans++
	return step.results, step.err
}

type stubNotifier struct {
	ready    int
	statuses []string
}

func (n *stubNotifier) Ready()              { n.ready++ }
func (n *stubNotifier) Status(status string) { n.statuses = append(n.statuses, status) }

type stubPublisher struct {
	reports []ScanReport
	err     error
}

func (p *stubPublisher) Publish(ctx context.Context, report ScanReport) error {
	p.reports = append(p.reports, report)
	return p.err
}

type sleepRecorder struct {
	durations []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) bool {
	s.durations = append(s.durations, d)
	return ctx.Err() == nil
}

func newTestLoop(radio Radio, cycles int, opts ...ScanLoopOption) (*ScanLoop, *bytes.Buffer, *sleepRecorder, *logtest.Hook) {
	var out bytes.Buffer
	sleeper := &sleepRecorder{}
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	opts = append([]ScanLoopOption{
		WithLogger(log),
		WithSleep(sleeper.sleep),
		WithMaxCycles(cycles),
	}, opts...)

	return NewScanLoop(DefaultScanConfig(), radio, &out, opts...), &out, sleeper, hook
}

// tableLines counts rendered rows, which are the only lines that start with
// an index.
func tableLines(output string) int {
	n := 0
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimLeft(line, " ")
		if trimmed != "" && trimmed[0] >= '0' && trimmed[0] <= '9' {
			n++
		}
	}
	return n
}

func TestScanLoop_PowerOnFailureIsFatal(t *testing.T) {
	radio := &stubRadio{powerOnErr: NewRadioError(OpPowerOn, 0x02, nil)}
	notifier := &stubNotifier{}
	loop, out, sleeper, _ := newTestLoop(radio, 0, WithNotifier(notifier))

	err := loop.Run(context.Background())

	require.Error(t, err)
	assert.True(t, IsPowerOnError(err))
	assert.Equal(t, clearAndBanner+"\nWi-Fi ON returned error: 0x2\n", out.String())
	assert.Equal(t, 1, radio.powerOns)
	assert.Zero(t, radio.scans)
	assert.Empty(t, sleeper.durations)
	assert.Equal(t, RadioFailed, loop.State())
	assert.Zero(t, notifier.ready)
}

func TestScanLoop_PowerOnPlainErrorIsGenericFailure(t *testing.T) {
	radio := &stubRadio{powerOnErr: errors.New("boom")}
	loop, out, _, _ := newTestLoop(radio, 0)

	err := loop.Run(context.Background())

	require.Error(t, err)
	assert.True(t, IsPowerOnError(err))
	assert.Equal(t, clearAndBanner+"\nWi-Fi ON returned error: 0x1\n", out.String())
}

func TestScanLoop_RendersResultsWithUnknownSecurity(t *testing.T) {
	radio := &stubRadio{steps: []scanStep{{results: []ScanResult{
		{SSID: "open-net", RSSI: -40, Channel: 1, Security: SecurityOpen},
		{SSID: "home", RSSI: -55, Channel: 6, Security: SecurityWPA2},
		{SSID: "weird", RSSI: -70, Channel: 11, Security: Security(99)},
	}}}}
	notifier := &stubNotifier{}
	loop, out, _, _ := newTestLoop(radio, 1, WithNotifier(notifier))

	require.NoError(t, loop.Run(context.Background()))

	want := clearAndBanner + header +
		"  1   open-net                            -40    1            Open                \n" +
		"  2   home                                -55    6            WPA2                \n" +
		"  3   weird                               -70   11            Unknown             \n"
	assert.Equal(t, want, out.String())
	assert.Equal(t, RadioOn, loop.State())
	assert.Equal(t, 1, notifier.ready)
	assert.Equal(t, []string{"Last scan found 3 networks"}, notifier.statuses)
	assert.Equal(t, []int{MaxScanResults}, radio.capacities)
}

func TestScanLoop_ScanFailureIsReportedAndLoopContinues(t *testing.T) {
	radio := &stubRadio{steps: []scanStep{
		{err: NewRadioError(OpScan, 0x07, nil)},
		{results: []ScanResult{{SSID: "home", RSSI: -55, Channel: 6, Security: SecurityWPA2}}},
	}}
	loop, out, sleeper, hook := newTestLoop(radio, 2)

	require.NoError(t, loop.Run(context.Background()))

	want := clearAndBanner +
		"\nWi-Fi scan returned error: 0x7\n" +
		header +
		"  1   home                                -55    6            WPA2                \n"
	assert.Equal(t, want, out.String())
	assert.Equal(t, 1, radio.powerOns)
	assert.Equal(t, 2, radio.scans)
	assert.Equal(t, []time.Duration{5000 * time.Millisecond}, sleeper.durations)
	assert.Equal(t, 2, loop.Cycles())

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Message == "Scan failed" {
			warned = true
			assert.Equal(t, "0x7", e.Data["code"])
		}
	}
	assert.True(t, warned)
}

func TestScanLoop_SleepsAfterEveryCycle(t *testing.T) {
	radio := &stubRadio{steps: []scanStep{
		{results: networks(2)},
		{err: NewRadioError(OpScan, CodeBusy, nil)},
	}}
	loop, _, sleeper, _ := newTestLoop(radio, 4)

	require.NoError(t, loop.Run(context.Background()))

	// No sleep after the last cycle when a limit is set.
	assert.Len(t, sleeper.durations, 3)
	for _, d := range sleeper.durations {
		assert.Equal(t, DefaultInterval, d)
	}
}

func TestScanLoop_RendersFullCapacity(t *testing.T) {
	radio := &stubRadio{steps: []scanStep{{results: networks(MaxScanResults)}}}
	loop, out, _, _ := newTestLoop(radio, 1)

	require.NoError(t, loop.Run(context.Background()))

	assert.Equal(t, MaxScanResults, tableLines(out.String()))
	assert.Contains(t, out.String(), " 100   net-99")
}

func TestScanLoop_DropsResultsBeyondCapacity(t *testing.T) {
	radio := &stubRadio{steps: []scanStep{{results: networks(MaxScanResults + 20)}}}
	loop, out, _, hook := newTestLoop(radio, 1)

	require.NoError(t, loop.Run(context.Background()))

	assert.Equal(t, MaxScanResults, tableLines(out.String()))
	assert.NotContains(t, out.String(), "net-100")

	var dropped bool
	for _, e := range hook.AllEntries() {
		dropped = dropped || strings.Contains(e.Message, "dropping the rest")
	}
	assert.True(t, dropped)
}

func TestScanLoop_ShorterScanDoesNotShowStaleRows(t *testing.T) {
	radio := &stubRadio{steps: []scanStep{
		{results: networks(40)},
		{results: networks(3)},
	}}
	loop, out, _, _ := newTestLoop(radio, 2)

	require.NoError(t, loop.Run(context.Background()))

	tables := strings.Split(out.String(), header)
	require.Len(t, tables, 3)
	assert.Equal(t, 40, tableLines(tables[1]))
	assert.Equal(t, 3, tableLines(tables[2]))
}

func TestScanLoop_EmptySSIDEndsTable(t *testing.T) {
	found := networks(10)
	found[4].SSID = ""
	radio := &stubRadio{steps: []scanStep{{results: found}}}
	loop, out, _, _ := newTestLoop(radio, 1)

	require.NoError(t, loop.Run(context.Background()))

	assert.Equal(t, 4, tableLines(out.String()))
}

func TestScanLoop_EmptyScanPrintsHeaderOnly(t *testing.T) {
	radio := &stubRadio{steps: []scanStep{{results: nil}}}
	loop, out, _, _ := newTestLoop(radio, 1)

	require.NoError(t, loop.Run(context.Background()))

	assert.Equal(t, clearAndBanner+header, out.String())
}

func TestScanLoop_StopsAtSleepWhenCancelled(t *testing.T) {
	radio := &stubRadio{steps: []scanStep{{results: networks(1)}}}
	var out bytes.Buffer
	log, _ := logtest.NewNullLogger()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loop := NewScanLoop(DefaultScanConfig(), radio, &out, WithLogger(log))

	require.NoError(t, loop.Run(ctx))
	// The cycle in flight still completes, cancellation is seen at the sleep.
	assert.Equal(t, 1, radio.scans)
	assert.Equal(t, 1, loop.Cycles())
}

// interruptedRadio cancels the loop while a radio call is in progress and
// fails the call the way an exec'd tool would if its context went away.
type interruptedRadio struct {
	cancel        context.CancelFunc
	duringPowerOn bool
	results       []ScanResult
	scans         int
}

func (r *interruptedRadio) PowerOn(ctx context.Context) error {
	if r.duringPowerOn {
		r.cancel()
	}
	return ctx.Err()
}

func (r *interruptedRadio) Scan(ctx context.Context, capacity int) ([]ScanResult, error) {
	r.scans++
	r.cancel()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.results, nil
}

func TestScanLoop_CancelDuringScanFinishesCycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	radio := &interruptedRadio{cancel: cancel, results: networks(2)}
	loop, out, _, _ := newTestLoop(radio, 0)

	require.NoError(t, loop.Run(ctx))

	assert.NotContains(t, out.String(), "returned error")
	assert.Equal(t, 2, tableLines(out.String()))
	assert.Equal(t, 1, radio.scans)
	assert.Equal(t, 1, loop.Cycles())
}

func TestScanLoop_CancelDuringPowerOnIsNotAnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	radio := &interruptedRadio{cancel: cancel, duringPowerOn: true, results: networks(1)}
	loop, out, _, _ := newTestLoop(radio, 0)

	require.NoError(t, loop.Run(ctx))

	assert.NotContains(t, out.String(), "returned error")
	assert.Equal(t, RadioOn, loop.State())
	assert.Equal(t, 1, loop.Cycles())
}

func TestScanLoop_PublishesSuccessfulScans(t *testing.T) {
	radio := &stubRadio{steps: []scanStep{
		{results: networks(2)},
		{err: NewRadioError(OpScan, CodeFailure, nil)},
	}}
	pub := &stubPublisher{err: errors.New("remote down")}
	cfg := DefaultScanConfig()
	cfg.Interface = "wlan0"

	var out bytes.Buffer
	log, hook := logtest.NewNullLogger()
	sleeper := &sleepRecorder{}
	loop := NewScanLoop(cfg, radio, &out, WithLogger(log), WithSleep(sleeper.sleep), WithMaxCycles(2), WithPublisher(pub))

	require.NoError(t, loop.Run(context.Background()))

	require.Len(t, pub.reports, 1)
	assert.Equal(t, "wlan0", pub.reports[0].Interface)
	assert.Equal(t, 1, pub.reports[0].Cycle)
	assert.Equal(t, networks(2), pub.reports[0].Results)
	assert.Equal(t, 2, radio.scans)

	var warned bool
	for _, e := range hook.AllEntries() {
		warned = warned || e.Message == "Failed to publish scan results"
	}
	assert.True(t, warned)
}

func TestScanLoop_PublishedSSIDsAreValidUTF8(t *testing.T) {
	// 31 bytes of ASCII then a two byte character straddling the limit.
	ssid := strings.Repeat("a", MaxSSIDLength-1) + "é"
	radio := &stubRadio{steps: []scanStep{{results: []ScanResult{{SSID: ssid, RSSI: -50, Channel: 6}}}}}
	pub := &stubPublisher{}
	loop, out, _, _ := newTestLoop(radio, 1, WithPublisher(pub))

	require.NoError(t, loop.Run(context.Background()))

	// The console keeps the byte cut.
	assert.Contains(t, out.String(), ssid[:MaxSSIDLength]+"   ")
	require.Len(t, pub.reports, 1)
	assert.Equal(t, strings.Repeat("a", MaxSSIDLength-1), pub.reports[0].Results[0].SSID)
}

func TestScanLoop_ScanTimeoutSetsDeadline(t *testing.T) {
	radio := &stubRadio{steps: []scanStep{{results: networks(1)}}}
	cfg := DefaultScanConfig()
	cfg.ScanTimeoutMs = 1500

	var out bytes.Buffer
	log, _ := logtest.NewNullLogger()
	loop := NewScanLoop(cfg, radio, &out, WithLogger(log), WithMaxCycles(1))

	require.NoError(t, loop.Run(context.Background()))
	assert.True(t, radio.hadDeadline)
}

func TestScanLoop_ReportsNamedInterface(t *testing.T) {
	radio := &namedRadio{stubRadio: stubRadio{steps: []scanStep{{results: networks(1)}}}, name: "wlp2s0"}
	pub := &stubPublisher{}
	loop, _, _, _ := newTestLoop(radio, 1, WithPublisher(pub))

	require.NoError(t, loop.Run(context.Background()))

	require.Len(t, pub.reports, 1)
	assert.Equal(t, "wlp2s0", pub.reports[0].Interface)
}

type namedRadio struct {
	stubRadio
	name string
}

func (r *namedRadio) Interface() string { return r.name }

func TestRadioState_String(t *testing.T) {
	assert.Equal(t, "off", RadioOff.String())
	assert.Equal(t, "on", RadioOn.String())
	assert.Equal(t, "failed", RadioFailed.String())
	assert.Equal(t, "invalid", RadioState(9).String())
}
