/*
wifiscan internal architecture:

 The ScanLoop is the only long running routine. It brings a Radio up once,
 then repeatedly clears its ScanResultSet, asks the Radio for a scan and
 renders whatever came back to the Console. Nothing else touches the result
 set, so there are no locks.

                    ┌──────────────────────────────┐
                    │          ScanLoop{}          │
                    │                              │
   Radio  ◄─────────┤  PowerOn (once)              │
   (iwlist, iw,     │                              │
    fake)  ◄────────┤  ┌─► Reset ─► Scan ─► Fill   │
                    │  │                    │      │
                    │  │                    ▼      │ ───► Console (stdout)
                    │  └── Sleep ◄──── Render ─────┤ ───► Publisher (resty)
                    │                              │ ───► Notifier (systemd)
                    └──────────────────────────────┘

 A failed PowerOn is terminal. A failed Scan is printed and the loop carries
 on after the usual sleep.
*/

package wifiscan

import (
	"context"
	"time"
)

// Radio is the piece of hardware (or simulation) we scan with.
type Radio interface {
	PowerOn(ctx context.Context) error
	// Scan returns at most capacity results in the order the radio reported them.
	Scan(ctx context.Context, capacity int) ([]ScanResult, error)
}

// Notifier is told about loop progress, ie: systemd.
type Notifier interface {
	Ready()
	Status(status string)
}

type Publisher interface {
	Publish(ctx context.Context, report ScanReport) error
}

// ScanReport is what a Publisher receives after every successful cycle.
type ScanReport struct {
	Interface string       `json:"interface"`
	Cycle     int          `json:"cycle"`
	Timestamp time.Time    `json:"timestamp"`
	Results   []ScanResult `json:"results"`
}
