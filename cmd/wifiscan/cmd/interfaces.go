package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	network_wifi "github.com/dogeorg/wifiscan/pkg/system/network/wifi"
	"github.com/spf13/cobra"
)

var (
	nameStyle = lipgloss.NewStyle().Bold(true)
	upStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // green
	downStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // red
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List the Wi-Fi radios on this machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		radios, err := network_wifi.ListRadios(cmd.Context())
		if err != nil {
			return fmt.Errorf("could not list wifi interfaces: %w", err)
		}

		printRadios(cmd.OutOrStdout(), radios)
		return nil
	},
}

func printRadios(w io.Writer, radios []network_wifi.RadioInterface) {
	if len(radios) == 0 {
		fmt.Fprintln(w, "No Wi-Fi radios found.")
		return
	}

	for _, r := range radios {
		state := downStyle.Render("down")
		if r.Up {
			state = upStyle.Render("up")
		}

		kind := "station"
		if !r.Station {
			kind = "other"
		}

		fmt.Fprintf(w, "%s %s %s\n", nameStyle.Render(r.Name), state, dimStyle.Render(fmt.Sprintf("(phy%d, %s, %s)", r.PHY, kind, r.HardwareAddr)))

		if r.SSID != "" {
			fmt.Fprintf(w, "    associated: %s %s\n", r.SSID, dimStyle.Render(fmt.Sprintf("(%s, %d MHz, channel %d)", r.BSSID, r.Frequency, network_wifi.FrequencyToChannel(r.Frequency))))
		}
	}
}

func init() {
	rootCmd.AddCommand(interfacesCmd)
}
