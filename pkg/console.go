package wifiscan

import (
	"fmt"
	"io"
	"strings"
)

const (
	// ANSI: erase display, cursor home.
	clearScreen = "\x1b[2J\x1b[;H"
	banner      = "\nStarting Wi-Fi Scan Task...\n"
	divider     = "  -------------------------------------------------------------------------------\n"
	titles      = "  #                  SSID                  RSSI   Channel      Security\n"
)

// Console renders loop output in the exact byte layout the scan task has
// always used, so anything scraping it keeps working.
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) Console {
	return Console{w: w}
}

func (t Console) ClearScreen() {
	io.WriteString(t.w, clearScreen)
}

func (t Console) Banner() {
	io.WriteString(t.w, banner)
}

func (t Console) PowerOnError(code RadioErrorCode) {
	fmt.Fprintf(t.w, "\nWi-Fi ON returned error: 0x%x\n", uint32(code))
}

func (t Console) ScanError(code RadioErrorCode) {
	fmt.Fprintf(t.w, "\nWi-Fi scan returned error: 0x%x\n", uint32(code))
}

func (t Console) Table(results []ScanResult) {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(divider)
	b.WriteString(titles)
	b.WriteString(divider)
	for i, r := range results {
		b.WriteString(FormatLine(i+1, r))
	}
	io.WriteString(t.w, b.String())
}

// FormatLine renders one table row. The SSID column is padded by byte, not
// by rune, so multi-byte names keep the same widths older consumers parse.
func FormatLine(index int, r ScanResult) string {
	return fmt.Sprintf(" %2d   %s   %4d   %2d            %-20s\n",
		index, padRight(TruncateSSID(r.SSID), MaxSSIDLength), r.RSSI, r.Channel, SecurityName(r.Security))
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
