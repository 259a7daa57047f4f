package wifiscan

import (
	"encoding/json"
	"unicode/utf8"
)

const (
	// MaxScanResults is the number of networks a single scan may report.
	MaxScanResults = 100
	// MaxSSIDLength is the 802.11 limit on an SSID, in bytes.
	MaxSSIDLength = 32
)

type Security int

const (
	SecurityOpen Security = iota
	SecurityWEP
	SecurityWPA
	SecurityWPA2
	SecurityWPA2Enterprise
	// SecurityNotSupported doubles as the fallback index into SecurityNames.
	SecurityNotSupported
)

// SecurityNames is ordered to match the Security values.
var SecurityNames = [...]string{
	"Open",
	"WEP",
	"WPA",
	"WPA2",
	"WPA2 Enterprise",
	"Unknown",
}

// SecurityName never indexes past the end of SecurityNames: anything outside
// the known range, SecurityNotSupported included, reads "Unknown".
func SecurityName(s Security) string {
	if s >= SecurityOpen && s < SecurityNotSupported {
		return SecurityNames[s]
	}
	return SecurityNames[SecurityNotSupported]
}

func (s Security) String() string {
	return SecurityName(s)
}

func (s Security) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

type ScanResult struct {
	SSID      string   `json:"ssid"`
	BSSID     string   `json:"bssid,omitempty"`
	RSSI      int      `json:"rssi"`
	Channel   int      `json:"channel"`
	Frequency int      `json:"frequency,omitempty"`
	Security  Security `json:"security"`
}

// TruncateSSID cuts an SSID down to MaxSSIDLength bytes.
func TruncateSSID(ssid string) string {
	if len(ssid) > MaxSSIDLength {
		return ssid[:MaxSSIDLength]
	}
	return ssid
}

// TrimPartialRune drops a multi-byte character left incomplete at the end of
// ssid, as TruncateSSID can leave one. Any other bytes are kept as they are.
func TrimPartialRune(ssid string) string {
	for i := len(ssid) - 1; i >= 0 && i >= len(ssid)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(ssid[i]) {
			continue
		}
		if ssid[i] >= utf8.RuneSelf && !utf8.FullRuneInString(ssid[i:]) {
			return ssid[:i]
		}
		break
	}
	return ssid
}

/* ScanResultSet
 *
 * A fixed capacity buffer that lives for as long as the
 * ScanLoop does. It is cleared before every scan and then
 * overwritten in place, so a short scan never shows rows
 * left over from a longer one.
 *
 * An empty SSID marks the end of the populated entries.
 */
type ScanResultSet struct {
	slots []ScanResult
}

func NewScanResultSet(capacity int) *ScanResultSet {
	if capacity <= 0 || capacity > MaxScanResults {
		capacity = MaxScanResults
	}
	return &ScanResultSet{slots: make([]ScanResult, capacity)}
}

func (t *ScanResultSet) Capacity() int {
	return len(t.slots)
}

// Reset zeroes every slot.
func (t *ScanResultSet) Reset() {
	clear(t.slots)
}

// Fill copies results into the set, dropping anything beyond capacity, and
// returns how many were stored.
func (t *ScanResultSet) Fill(results []ScanResult) int {
	n := copy(t.slots, results)
	for i := 0; i < n; i++ {
		t.slots[i].SSID = TruncateSSID(t.slots[i].SSID)
	}
	return n
}

// Results returns the populated entries, stopping at the first empty SSID
// or at capacity.
func (t *ScanResultSet) Results() []ScanResult {
	for i := range t.slots {
		if t.slots[i].SSID == "" {
			return t.slots[:i]
		}
	}
	return t.slots
}
