package network_wifi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrequencyToChannel(t *testing.T) {
	tests := []struct {
		mhz  int
		want int
	}{
		{2412, 1},
		{2437, 6},
		{2472, 13},
		{2484, 14},
		{5180, 36},
		{5745, 149},
		{5885, 177},
		{4920, 184},
		{5935, 2},
		{5955, 1},
		{6115, 33},
		{7115, 233},
		{0, 0},
		{900, 0},
		{60480, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FrequencyToChannel(tt.mhz), "%d MHz", tt.mhz)
	}
}
