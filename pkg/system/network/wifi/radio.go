package network_wifi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	wifiscan "github.com/dogeorg/wifiscan/pkg"
	"github.com/mdlayher/wifi"
	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/sirupsen/logrus"
)

var _ wifiscan.Radio = &LinuxRadio{}

var (
	ErrNoRadio       = errors.New("no wifi radio found")
	ErrInterfaceDown = errors.New("interface did not come up")
)

/* LinuxRadio
 *
 * Drives a nl80211 radio through the usual userspace
 * tools: rfkill and ip to power it on, then iwlist or iw
 * to scan. Failures are mapped onto RadioErrorCodes so
 * the loop can print them the same way regardless of
 * which tool failed.
 */
type LinuxRadio struct {
	interfaceName string
	runner        CommandRunner
	scanner       WifiScanner
	log           logrus.FieldLogger

	// swapped out in tests
	stations func() ([]string, error)
	linkUp   func(ctx context.Context, name string) (bool, error)
}

func NewLinuxRadio(interfaceName, backend string, log logrus.FieldLogger) (*LinuxRadio, error) {
	runner := ExecRunner{}

	scanner, err := NewWifiScanner(backend, runner)
	if err != nil {
		return nil, err
	}

	return &LinuxRadio{
		interfaceName: interfaceName,
		runner:        runner,
		scanner:       scanner,
		log:           log,
		stations:      stationInterfaces,
		linkUp:        isLinkUp,
	}, nil
}

// Interface is the name of the radio in use, resolved by PowerOn when none
// was configured.
func (t *LinuxRadio) Interface() string {
	return t.interfaceName
}

func (t *LinuxRadio) PowerOn(ctx context.Context) error {
	name, err := t.resolveInterface()
	if err != nil {
		return wifiscan.NewRadioError(wifiscan.OpPowerOn, wifiscan.CodeNotSupported, err)
	}
	t.interfaceName = name
	log := t.log.WithField("interface", name)

	// Not every system ships rfkill, and a missing one can't be blocking us.
	if _, err := t.runner.Run(ctx, "rfkill", "unblock", "wifi"); err != nil {
		if !isNotFound(err) {
			return t.radioError(wifiscan.OpPowerOn, err)
		}
		log.Debug("rfkill not installed, skipping unblock")
	}

	if _, err := t.runner.Run(ctx, "ip", "link", "set", "dev", name, "up"); err != nil {
		return t.radioError(wifiscan.OpPowerOn, err)
	}

	up, err := t.linkUp(ctx, name)
	if err != nil {
		return t.radioError(wifiscan.OpPowerOn, err)
	}
	if !up {
		return wifiscan.NewRadioError(wifiscan.OpPowerOn, wifiscan.CodeFailure, fmt.Errorf("%w: %s", ErrInterfaceDown, name))
	}

	log.Debug("Radio powered on")
	return nil
}

func (t *LinuxRadio) Scan(ctx context.Context, capacity int) ([]wifiscan.ScanResult, error) {
	networks, err := t.scanner.Scan(ctx, t.interfaceName)
	if err != nil {
		return nil, t.radioError(wifiscan.OpScan, err)
	}

	if capacity > 0 && len(networks) > capacity {
		t.log.WithFields(logrus.Fields{
			"interface": t.interfaceName,
			"found":     len(networks),
			"capacity":  capacity,
		}).Debug("Truncating scan results")
		networks = networks[:capacity]
	}

	results := make([]wifiscan.ScanResult, 0, len(networks))
	for _, n := range networks {
		results = append(results, n.ScanResult())
	}
	return results, nil
}

func (t *LinuxRadio) resolveInterface() (string, error) {
	names, err := t.stations()
	if err != nil {
		return "", fmt.Errorf("could not list wifi interfaces: %w", err)
	}

	if t.interfaceName == "" {
		if len(names) == 0 {
			return "", ErrNoRadio
		}
		return names[0], nil
	}

	for _, n := range names {
		if n == t.interfaceName {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %s is not a wifi station interface", ErrNoRadio, t.interfaceName)
}

func (t *LinuxRadio) radioError(op wifiscan.RadioOp, err error) error {
	return wifiscan.NewRadioError(op, classify(err), err)
}

// classify maps tool failures onto radio error codes.
func classify(err error) wifiscan.RadioErrorCode {
	if errors.Is(err, context.DeadlineExceeded) {
		return wifiscan.CodeTimeout
	}
	if isNotFound(err) {
		return wifiscan.CodeNotSupported
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "resource busy"):
		return wifiscan.CodeBusy
	case strings.Contains(msg, "doesn't support scanning"),
		strings.Contains(msg, "no such device"),
		strings.Contains(msg, "operation not supported"):
		return wifiscan.CodeNotSupported
	default:
		return wifiscan.CodeFailure
	}
}

func stationInterfaces() ([]string, error) {
	client, err := wifi.New()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	ifaces, err := client.Interfaces()
	if err != nil {
		return nil, err
	}

	names := []string{}
	for _, ifi := range ifaces {
		// Skip P2P devices and the like, they have no name to scan with.
		if ifi.Name == "" || ifi.Type != wifi.InterfaceTypeStation {
			continue
		}
		names = append(names, ifi.Name)
	}
	return names, nil
}

func isLinkUp(ctx context.Context, name string) (bool, error) {
	ifaces, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return false, err
	}

	for _, ifi := range ifaces {
		if ifi.Name != name {
			continue
		}
		return hasFlag(ifi.Flags, "up"), nil
	}
	return false, fmt.Errorf("interface %s not found", name)
}
