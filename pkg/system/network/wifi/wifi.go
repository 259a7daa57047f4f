package network_wifi

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	wifiscan "github.com/dogeorg/wifiscan/pkg"
)

type ScannedWifiNetwork struct {
	SSID      string
	BSSID     string
	Security  wifiscan.Security
	Signal    int // dBm
	Channel   int
	Frequency int // MHz
}

func (n ScannedWifiNetwork) ScanResult() wifiscan.ScanResult {
	channel := n.Channel
	if channel == 0 {
		channel = FrequencyToChannel(n.Frequency)
	}

	return wifiscan.ScanResult{
		SSID:      wifiscan.TruncateSSID(n.SSID),
		BSSID:     n.BSSID,
		RSSI:      n.Signal,
		Channel:   channel,
		Frequency: n.Frequency,
		Security:  n.Security,
	}
}

type WifiScanner interface {
	Scan(ctx context.Context, networkInterface string) ([]ScannedWifiNetwork, error)
}

func NewWifiScanner(backend string, runner CommandRunner) (WifiScanner, error) {
	switch backend {
	case "", "iwlist":
		return IWListScanner{runner: runner}, nil
	case "iw":
		return IWScanner{runner: runner}, nil
	default:
		return nil, fmt.Errorf("no wifi scanner for backend %q", backend)
	}
}

// iw and iwlist both print non-printable SSID bytes as \xNN.
func unescapeSSID(s string) string {
	if !strings.Contains(s, `\x`) {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) && s[i+1] == 'x' {
			if v, err := strconv.ParseUint(s[i+2:i+4], 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// hiddenSSID reports an SSID the access point chose not to broadcast, which
// shows up as empty or as a run of NUL bytes.
func hiddenSSID(ssid string) bool {
	return strings.Trim(ssid, "\x00") == ""
}
