package network

import (
	wifiscan "github.com/dogeorg/wifiscan/pkg"
	network_fake "github.com/dogeorg/wifiscan/pkg/system/network/fake"
	network_wifi "github.com/dogeorg/wifiscan/pkg/system/network/wifi"
	"github.com/sirupsen/logrus"
)

// NewRadio picks the radio implementation for the configured backend.
func NewRadio(config wifiscan.ScanConfig, log logrus.FieldLogger) (wifiscan.Radio, error) {
	if config.Backend == "fake" {
		log.Info("Using simulated radio")
		return network_fake.NewFakeRadio(config.Fake), nil
	}
	return network_wifi.NewLinuxRadio(config.Interface, config.Backend, log)
}
