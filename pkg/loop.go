package wifiscan

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

type RadioState int

const (
	RadioOff RadioState = iota
	RadioOn
	RadioFailed
)

func (s RadioState) String() string {
	switch s {
	case RadioOff:
		return "off"
	case RadioOn:
		return "on"
	case RadioFailed:
		return "failed"
	default:
		return "invalid"
	}
}

type ScanLoopOption func(*ScanLoop)

func WithLogger(log logrus.FieldLogger) ScanLoopOption {
	return func(t *ScanLoop) { t.log = log }
}

func WithNotifier(n Notifier) ScanLoopOption {
	return func(t *ScanLoop) { t.notifier = n }
}

func WithPublisher(p Publisher) ScanLoopOption {
	return func(t *ScanLoop) { t.publisher = p }
}

// WithMaxCycles stops the loop after n cycles, 0 runs forever.
func WithMaxCycles(n int) ScanLoopOption {
	return func(t *ScanLoop) { t.maxCycles = n }
}

// WithSleep replaces the wait between cycles. It must return false once ctx
// is done.
func WithSleep(sleep func(ctx context.Context, d time.Duration) bool) ScanLoopOption {
	return func(t *ScanLoop) { t.sleep = sleep }
}

/* ScanLoop
 *
 * Turns the radio on once and then scans every
 * interval until the context is cancelled. A radio that
 * won't power on ends the loop before any scan is made,
 * a failed scan is printed and skipped.
 *
 * Cancellation is only observed between cycles, while
 * sleeping.
 */
type ScanLoop struct {
	config    ScanConfig
	radio     Radio
	console   Console
	results   *ScanResultSet
	log       logrus.FieldLogger
	notifier  Notifier
	publisher Publisher
	maxCycles int
	sleep     func(ctx context.Context, d time.Duration) bool
	state     RadioState
	cycles    int
}

func NewScanLoop(config ScanConfig, radio Radio, out io.Writer, opts ...ScanLoopOption) *ScanLoop {
	t := &ScanLoop{
		config:  config,
		radio:   radio,
		console: NewConsole(out),
		results: NewScanResultSet(config.Capacity),
		log:     logrus.StandardLogger(),
		sleep:   sleepContext,
		state:   RadioOff,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

func (t *ScanLoop) State() RadioState {
	return t.state
}

// Cycles is the number of scan cycles completed so far.
func (t *ScanLoop) Cycles() int {
	return t.cycles
}

// Run returns the power on error if the radio never came up, and nil once
// the context is cancelled or the cycle limit is reached.
func (t *ScanLoop) Run(ctx context.Context) error {
	t.console.ClearScreen()

	err := t.powerOn(ctx)

	t.console.Banner()

	if err != nil {
		code := CodeOf(err)
		t.state = RadioFailed
		t.console.PowerOnError(code)
		t.log.WithFields(logrus.Fields{
			"interface": t.interfaceName(),
			"code":      fmt.Sprintf("0x%x", uint32(code)),
		}).WithError(err).Error("Radio failed to power on")
		if t.notifier != nil {
			t.notifier.Status(fmt.Sprintf("Wi-Fi ON returned error: 0x%x", uint32(code)))
		}
		return err
	}

	t.state = RadioOn
	t.log.WithField("interface", t.interfaceName()).Info("Radio is on, starting scan loop")
	if t.notifier != nil {
		t.notifier.Ready()
	}

	for {
		t.cycle(ctx)

		if t.maxCycles > 0 && t.cycles >= t.maxCycles {
			t.log.WithField("cycles", t.cycles).Debug("Cycle limit reached")
			return nil
		}

		if !t.sleep(ctx, t.config.Interval()) {
			t.log.WithField("cycles", t.cycles).Info("Scan loop stopped")
			return nil
		}
	}
}

func (t *ScanLoop) powerOn(ctx context.Context) error {
	ctx, cancel := t.radioContext(ctx)
	defer cancel()

	err := t.radio.PowerOn(ctx)
	if err != nil && !IsPowerOnError(err) {
		err = NewRadioError(OpPowerOn, CodeOf(err), err)
	}
	return err
}

func (t *ScanLoop) cycle(ctx context.Context) {
	t.cycles++
	log := t.log.WithField("cycle", t.cycles)

	t.results.Reset()

	found, err := t.scan(ctx)
	if err != nil {
		code := CodeOf(err)
		t.console.ScanError(code)
		log.WithField("code", fmt.Sprintf("0x%x", uint32(code))).WithError(err).Warn("Scan failed")
		if t.notifier != nil {
			t.notifier.Status(fmt.Sprintf("Wi-Fi scan returned error: 0x%x", uint32(code)))
		}
		return
	}

	stored := t.results.Fill(found)
	if stored < len(found) {
		log.WithFields(logrus.Fields{
			"reported": len(found),
			"kept":     stored,
		}).Warn("Radio reported more networks than fit, dropping the rest")
	}

	results := t.results.Results()
	t.console.Table(results)
	log.WithField("networks", len(results)).Debug("Scan complete")

	if t.notifier != nil {
		t.notifier.Status(fmt.Sprintf("Last scan found %d networks", len(results)))
	}

	if t.publisher != nil {
		report := ScanReport{
			Interface: t.interfaceName(),
			Cycle:     t.cycles,
			Timestamp: time.Now().UTC(),
			Results:   reportResults(results),
		}
		if err := t.publisher.Publish(ctx, report); err != nil {
			log.WithError(err).Warn("Failed to publish scan results")
		}
	}
}

// reportResults copies results for publishing. SSIDs cut mid-character are
// trimmed so they survive JSON encoding intact.
func reportResults(results []ScanResult) []ScanResult {
	out := make([]ScanResult, len(results))
	for i, r := range results {
		r.SSID = TrimPartialRune(r.SSID)
		out[i] = r
	}
	return out
}

func (t *ScanLoop) scan(ctx context.Context) ([]ScanResult, error) {
	ctx, cancel := t.radioContext(ctx)
	defer cancel()

	return t.radio.Scan(ctx, t.results.Capacity())
}

// Radios that pick their own interface report it back through Interface().
func (t *ScanLoop) interfaceName() string {
	if named, ok := t.radio.(interface{ Interface() string }); ok {
		return named.Interface()
	}
	return t.config.Interface
}

// radioContext detaches radio calls from loop cancellation so a cycle that
// has started always completes. Only the scan timeout can cut a call short.
func (t *ScanLoop) radioContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if timeout := t.config.ScanTimeout(); timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
