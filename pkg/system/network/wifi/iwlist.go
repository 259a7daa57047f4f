package network_wifi

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	wifiscan "github.com/dogeorg/wifiscan/pkg"
)

var _ WifiScanner = &IWListScanner{}

type IWListScanner struct {
	runner CommandRunner
}

func (s IWListScanner) Scan(ctx context.Context, interfaceName string) ([]ScannedWifiNetwork, error) {
	out, err := s.runner.Run(ctx, "iwlist", interfaceName, "scan")
	if err != nil {
		return nil, err
	}

	return parseIWListOutput(out), nil
}

var (
	iwlistCellRegex       = regexp.MustCompile(`(?m)^\s*Cell \d+ - `)
	iwlistAddressRegex    = regexp.MustCompile(`Address: ([0-9A-Fa-f:]{17})`)
	iwlistSSIDRegex       = regexp.MustCompile(`ESSID:"(.*)"`)
	iwlistChannelRegex    = regexp.MustCompile(`Channel[:\s](\d+)`)
	iwlistFrequencyRegex  = regexp.MustCompile(`Frequency:([\d.]+) GHz`)
	iwlistSignalDBMRegex  = regexp.MustCompile(`Signal level[=:](-?\d+) dBm`)
	iwlistSignalRelRegex  = regexp.MustCompile(`Signal level[=:](\d+)/(\d+)`)
	iwlistEncryptionRegex = regexp.MustCompile(`Encryption key:(on|off)`)
	iwlistWPA2Regex       = regexp.MustCompile(`IE: IEEE 802.11i/WPA2 Version`)
	iwlistWPARegex        = regexp.MustCompile(`IE: WPA Version 1`)
	iwlistAuthRegex       = regexp.MustCompile(`Authentication Suites \(\d+\) : (.*)`)
)

func parseIWListOutput(output string) []ScannedWifiNetwork {
	var networks []ScannedWifiNetwork

	// Anything before the first cell is the "Scan completed" header.
	cells := iwlistCellRegex.Split(output, -1)
	if len(cells) > 0 {
		cells = cells[1:]
	}

	for _, cell := range cells {
		ssid := iwlistSSIDRegex.FindStringSubmatch(cell)
		address := iwlistAddressRegex.FindStringSubmatch(cell)
		encryption := iwlistEncryptionRegex.FindStringSubmatch(cell)

		// Ignore hidden networks and anything we can't make sense of.
		if len(ssid) < 2 || len(address) < 2 || len(encryption) < 2 {
			continue
		}
		name := unescapeSSID(ssid[1])
		if hiddenSSID(name) {
			continue
		}

		network := ScannedWifiNetwork{
			SSID:     name,
			BSSID:    strings.ToLower(address[1]),
			Security: iwlistSecurity(cell, encryption[1] == "on"),
			Signal:   iwlistSignal(cell),
		}

		if m := iwlistFrequencyRegex.FindStringSubmatch(cell); len(m) > 1 {
			if ghz, err := strconv.ParseFloat(m[1], 64); err == nil {
				network.Frequency = int(ghz*1000 + 0.5)
			}
		}

		if m := iwlistChannelRegex.FindStringSubmatch(cell); len(m) > 1 {
			network.Channel, _ = strconv.Atoi(m[1])
		}

		networks = append(networks, network)
	}

	return networks
}

func iwlistSignal(cell string) int {
	if m := iwlistSignalDBMRegex.FindStringSubmatch(cell); len(m) > 1 {
		dbm, _ := strconv.Atoi(m[1])
		return dbm
	}

	// Some drivers only report a relative level, map 0..max onto -100..-50 dBm.
	if m := iwlistSignalRelRegex.FindStringSubmatch(cell); len(m) > 2 {
		level, _ := strconv.Atoi(m[1])
		max, _ := strconv.Atoi(m[2])
		if max > 0 {
			return level*50/max - 100
		}
	}

	return 0
}

func iwlistSecurity(cell string, encrypted bool) wifiscan.Security {
	if !encrypted {
		return wifiscan.SecurityOpen
	}

	var suites []string
	for _, m := range iwlistAuthRegex.FindAllStringSubmatch(cell, -1) {
		suites = append(suites, strings.Fields(m[1])...)
	}

	switch {
	case iwlistWPA2Regex.MatchString(cell):
		return rsnSecurity(suites)
	case iwlistWPARegex.MatchString(cell):
		return wifiscan.SecurityWPA
	default:
		return wifiscan.SecurityWEP
	}
}

// rsnSecurity classifies an RSN element by its key management suites.
// SAE-only (WPA3) networks have no slot in the table and read as unknown.
func rsnSecurity(suites []string) wifiscan.Security {
	psk, sae := false, false
	for _, s := range suites {
		switch strings.ToUpper(s) {
		case "802.1X", "IEEE", "802.1X/SHA-256", "FT/IEEE":
			return wifiscan.SecurityWPA2Enterprise
		case "PSK", "PSK/SHA-256", "FT/PSK":
			psk = true
		case "SAE", "FT/SAE":
			sae = true
		}
	}

	if sae && !psk {
		return wifiscan.SecurityNotSupported
	}
	return wifiscan.SecurityWPA2
}
