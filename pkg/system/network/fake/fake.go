// Package network_fake provides a simulated radio for demos and tests.
package network_fake

import (
	"context"
	"fmt"

	wifiscan "github.com/dogeorg/wifiscan/pkg"
)

var _ wifiscan.Radio = &FakeRadio{}

// FakeRadio reports a fixed neighbourhood of networks whose signal drifts a
// little from scan to scan.
type FakeRadio struct {
	networks []wifiscan.ScanResult

	// Error simulation
	powerOnErr      wifiscan.RadioErrorCode
	scanErr         wifiscan.RadioErrorCode
	scanErrEveryNth int

	powerOns int
	scans    int
}

var neighbourhood = []wifiscan.ScanResult{
	{SSID: "dogebox", BSSID: "02:00:00:00:00:01", RSSI: -38, Channel: 6, Frequency: 2437, Security: wifiscan.SecurityWPA2},
	{SSID: "Much Wow Guest", BSSID: "02:00:00:00:00:02", RSSI: -51, Channel: 1, Frequency: 2412, Security: wifiscan.SecurityOpen},
	{SSID: "SuchSecure-5G", BSSID: "02:00:00:00:00:03", RSSI: -57, Channel: 36, Frequency: 5180, Security: wifiscan.SecurityWPA2Enterprise},
	{SSID: "shibe-legacy", BSSID: "02:00:00:00:00:04", RSSI: -63, Channel: 11, Frequency: 2462, Security: wifiscan.SecurityWEP},
	{SSID: "to the moon", BSSID: "02:00:00:00:00:05", RSSI: -66, Channel: 149, Frequency: 5745, Security: wifiscan.SecurityWPA2},
	{SSID: "kabosu", BSSID: "02:00:00:00:00:06", RSSI: -71, Channel: 6, Frequency: 2437, Security: wifiscan.SecurityWPA},
	{SSID: "wpa3-only", BSSID: "02:00:00:00:00:07", RSSI: -77, Channel: 44, Frequency: 5220, Security: wifiscan.SecurityNotSupported},
	{SSID: "HP-Print-4C-LaserJet", BSSID: "02:00:00:00:00:08", RSSI: -84, Channel: 11, Frequency: 2462, Security: wifiscan.SecurityWPA2},
}

func NewFakeRadio(config wifiscan.FakeConfig) *FakeRadio {
	return &FakeRadio{
		networks:        generateNetworks(config.Networks),
		powerOnErr:      wifiscan.RadioErrorCode(config.PowerOnErrCode),
		scanErr:         wifiscan.RadioErrorCode(config.ScanErrCode),
		scanErrEveryNth: config.ScanErrEveryNth,
	}
}

// NewFakeRadioWithNetworks reports exactly the given networks on every scan.
func NewFakeRadioWithNetworks(networks []wifiscan.ScanResult) *FakeRadio {
	return &FakeRadio{networks: networks}
}

func (f *FakeRadio) PowerOn(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	f.powerOns++
	if f.powerOnErr != wifiscan.CodeSuccess {
		return wifiscan.NewRadioError(wifiscan.OpPowerOn, f.powerOnErr, nil)
	}
	return nil
}

func (f *FakeRadio) Scan(ctx context.Context, capacity int) ([]wifiscan.ScanResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	f.scans++
	if f.scanErr != wifiscan.CodeSuccess && f.failsThisScan() {
		return nil, wifiscan.NewRadioError(wifiscan.OpScan, f.scanErr, nil)
	}

	n := len(f.networks)
	if capacity > 0 && n > capacity {
		n = capacity
	}

	out := make([]wifiscan.ScanResult, n)
	copy(out, f.networks[:n])
	for i := range out {
		out[i].RSSI += drift(f.scans, i)
	}
	return out, nil
}

// PowerOns and Scans count the calls made so far.
func (f *FakeRadio) PowerOns() int { return f.powerOns }
func (f *FakeRadio) Scans() int    { return f.scans }

func (f *FakeRadio) failsThisScan() bool {
	if f.scanErrEveryNth <= 1 {
		return true
	}
	return f.scans%f.scanErrEveryNth == 0
}

// drift is a deterministic -2..+2 dBm wobble, zero on the first scan.
func drift(scan, index int) int {
	if scan <= 1 {
		return 0
	}
	return (scan*7+index*3)%5 - 2
}

func generateNetworks(count int) []wifiscan.ScanResult {
	if count < 0 {
		count = 0
	}
	if count > wifiscan.MaxScanResults {
		count = wifiscan.MaxScanResults
	}

	out := make([]wifiscan.ScanResult, 0, count)
	for i := 0; i < count; i++ {
		if i < len(neighbourhood) {
			out = append(out, neighbourhood[i])
			continue
		}
		out = append(out, wifiscan.ScanResult{
			SSID:      fmt.Sprintf("doge-%03d", i),
			BSSID:     fmt.Sprintf("02:00:00:00:%02x:%02x", i/256, i%256),
			RSSI:      -60 - i%35,
			Channel:   1 + (i*5)%11,
			Frequency: 2412 + ((i*5)%11)*5,
			Security:  wifiscan.Security(i % 6),
		})
	}
	return out
}
