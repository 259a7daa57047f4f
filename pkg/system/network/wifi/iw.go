package network_wifi

import (
	"bufio"
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	wifiscan "github.com/dogeorg/wifiscan/pkg"
)

var _ WifiScanner = &IWScanner{}

// IWScanner uses the nl80211 based `iw` tool, for systems that no longer
// ship wireless-tools.
type IWScanner struct {
	runner CommandRunner
}

func (s IWScanner) Scan(ctx context.Context, interfaceName string) ([]ScannedWifiNetwork, error) {
	out, err := s.runner.Run(ctx, "iw", "dev", interfaceName, "scan")
	if err != nil {
		return nil, err
	}

	return parseIWOutput(out), nil
}

var (
	iwBSSRegex     = regexp.MustCompile(`^BSS ([0-9A-Fa-f:]{17})`)
	iwFreqRegex    = regexp.MustCompile(`^\s*freq: ([\d.]+)`)
	iwSignalRegex  = regexp.MustCompile(`^\s*signal: (-?[\d.]+) dBm`)
	iwSSIDRegex    = regexp.MustCompile(`^\s*SSID: ?(.*)$`)
	iwDSRegex      = regexp.MustCompile(`DS Parameter set: channel (\d+)`)
	iwPrimaryRegex = regexp.MustCompile(`\* primary channel: (\d+)`)
	iwAuthRegex    = regexp.MustCompile(`\* Authentication suites: (.*)$`)
)

type iwCell struct {
	network ScannedWifiNetwork
	privacy bool
	rsn     []string
	hasRSN  bool
	hasWPA  bool
}

func (c iwCell) finish() ScannedWifiNetwork {
	n := c.network
	switch {
	case c.hasRSN:
		n.Security = rsnSecurity(c.rsn)
	case c.hasWPA:
		n.Security = wifiscan.SecurityWPA
	case c.privacy:
		n.Security = wifiscan.SecurityWEP
	default:
		n.Security = wifiscan.SecurityOpen
	}
	return n
}

func parseIWOutput(output string) []ScannedWifiNetwork {
	var networks []ScannedWifiNetwork
	var cell *iwCell
	section := ""

	flush := func() {
		if cell != nil && !hiddenSSID(cell.network.SSID) {
			networks = append(networks, cell.finish())
		}
	}

	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		line := sc.Text()

		if m := iwBSSRegex.FindStringSubmatch(line); m != nil {
			flush()
			cell = &iwCell{network: ScannedWifiNetwork{BSSID: strings.ToLower(m[1])}}
			section = ""
			continue
		}
		if cell == nil {
			continue
		}

		// Top level attributes are indented by a single tab, section
		// details by two.
		if strings.HasPrefix(line, "\t") && !strings.HasPrefix(line, "\t\t") {
			section = ""
			switch {
			case strings.HasPrefix(line, "\tRSN:"):
				section = "rsn"
				cell.hasRSN = true
			case strings.HasPrefix(line, "\tWPA:"):
				section = "wpa"
				cell.hasWPA = true
			case strings.HasPrefix(line, "\tcapability:"):
				cell.privacy = strings.Contains(line, "Privacy")
			}
		}

		switch {
		case iwFreqRegex.MatchString(line):
			f, _ := strconv.ParseFloat(iwFreqRegex.FindStringSubmatch(line)[1], 64)
			cell.network.Frequency = int(f)
		case iwSignalRegex.MatchString(line):
			s, _ := strconv.ParseFloat(iwSignalRegex.FindStringSubmatch(line)[1], 64)
			cell.network.Signal = int(math.Round(s))
		case iwSSIDRegex.MatchString(line):
			cell.network.SSID = unescapeSSID(iwSSIDRegex.FindStringSubmatch(line)[1])
		case iwDSRegex.MatchString(line):
			cell.network.Channel, _ = strconv.Atoi(iwDSRegex.FindStringSubmatch(line)[1])
		case iwPrimaryRegex.MatchString(line):
			if cell.network.Channel == 0 {
				cell.network.Channel, _ = strconv.Atoi(iwPrimaryRegex.FindStringSubmatch(line)[1])
			}
		case iwAuthRegex.MatchString(line):
			if section == "rsn" {
				cell.rsn = append(cell.rsn, strings.Fields(iwAuthRegex.FindStringSubmatch(line)[1])...)
			}
		}
	}
	flush()

	return networks
}
