package network_wifi

// FrequencyToChannel maps a centre frequency in MHz to its 802.11 channel
// number, or 0 when the frequency is not in a band we know.
func FrequencyToChannel(mhz int) int {
	switch {
	case mhz == 2484:
		return 14
	case mhz >= 2412 && mhz <= 2472:
		return (mhz - 2407) / 5
	case mhz >= 4915 && mhz <= 4980:
		return (mhz - 4000) / 5
	case mhz >= 5160 && mhz <= 5885:
		return (mhz - 5000) / 5
	case mhz == 5935:
		return 2
	case mhz >= 5955 && mhz <= 7115:
		return (mhz - 5950) / 5
	default:
		return 0
	}
}
