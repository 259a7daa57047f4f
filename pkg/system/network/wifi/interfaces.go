package network_wifi

import (
	"context"

	"github.com/mdlayher/wifi"
	psnet "github.com/shirou/gopsutil/v4/net"
)

type RadioInterface struct {
	Name         string
	HardwareAddr string
	PHY          int
	Station      bool
	Up           bool
	// Frequency is only known while associated, in MHz.
	Frequency int
	// Associated SSID/BSSID, empty when not connected.
	SSID  string
	BSSID string
}

// ListRadios reports every wifi interface the kernel knows about, along
// with its link state and the network it's associated to, if any.
func ListRadios(ctx context.Context) ([]RadioInterface, error) {
	client, err := wifi.New()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	ifaces, err := client.Interfaces()
	if err != nil {
		return nil, err
	}

	links := map[string][]string{}
	stats, err := psnet.InterfacesWithContext(ctx)
	if err == nil {
		for _, s := range stats {
			links[s.Name] = s.Flags
		}
	}

	radios := []RadioInterface{}
	for _, ifi := range ifaces {
		if ifi.Name == "" {
			continue
		}

		r := RadioInterface{
			Name:      ifi.Name,
			PHY:       ifi.PHY,
			Station:   ifi.Type == wifi.InterfaceTypeStation,
			Frequency: ifi.Frequency,
			Up:        hasFlag(links[ifi.Name], "up"),
		}
		if ifi.HardwareAddr != nil {
			r.HardwareAddr = ifi.HardwareAddr.String()
		}

		// BSS errors out when we're not associated, which is fine.
		if bss, err := client.BSS(ifi); err == nil && bss != nil {
			r.SSID = bss.SSID
			if bss.BSSID != nil {
				r.BSSID = bss.BSSID.String()
			}
			if r.Frequency == 0 {
				r.Frequency = bss.Frequency
			}
		}

		radios = append(radios, r)
	}

	return radios, nil
}

func hasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}
