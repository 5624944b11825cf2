package wfm_test

import (
	"testing"

	"github.com/jdekker/awgstream/profile"
	"github.com/jdekker/awgstream/wfm"
	"github.com/stretchr/testify/require"
)

func mustProfile(t *testing.T, model string) profile.Profile {
	t.Helper()
	p, err := profile.Builtin().Lookup(model)
	require.NoError(t, err)
	return p
}

func TestRequiredRepeats(t *testing.T) {
	tests := []struct {
		name                 string
		length, gran, minLen int
		want                 int
	}{
		// 100 samples against the wsp profile: the first multiple of 100
		// that is divisible by 64 and >= 320 is 1600.
		{"wsp short pattern", 100, 64, 320, 16},
		{"already aligned", 320, 64, 320, 1},
		{"aligned above minimum", 640, 64, 320, 1},
		{"multiple but short", 64, 64, 320, 5},
		{"coprime granularity", 3, 64, 320, 128},
		{"single sample", 1, 2, 60, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := wfm.RequiredRepeats(tt.length, tt.gran, tt.minLen)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			// The result must actually satisfy both constraints.
			total := got * tt.length
			require.Zero(t, total%tt.gran)
			require.GreaterOrEqual(t, total, tt.minLen)
			// And be minimal.
			for r := 1; r < got; r++ {
				sat := r*tt.length%tt.gran == 0 && r*tt.length >= tt.minLen
				require.False(t, sat, "repeats=%d already satisfies constraints", r)
			}
		})
	}
}

func TestRequiredRepeatsInvalidLength(t *testing.T) {
	_, err := wfm.RequiredRepeats(0, 64, 320)
	require.ErrorIs(t, err, wfm.ErrInvalidLength)

	_, err = wfm.RequiredRepeats(-5, 64, 320)
	require.ErrorIs(t, err, wfm.ErrInvalidLength)
}

func TestValidate(t *testing.T) {
	p := mustProfile(t, "m8190a-wsp")

	require.NoError(t, wfm.Validate(320, p))

	err := wfm.Validate(128, p)
	var below *wfm.BelowMinimumError
	require.ErrorAs(t, err, &below)
	require.Equal(t, 128, below.Length)
	require.Equal(t, 320, below.MinLength)

	err = wfm.Validate(321, p)
	var gran *wfm.GranularityError
	require.ErrorAs(t, err, &gran)
	require.Equal(t, 1, gran.Remainder)

	m8196a := mustProfile(t, "m8196a")
	err = wfm.Validate(524288+128, m8196a)
	var above *wfm.AboveMaximumError
	require.ErrorAs(t, err, &above)
	require.Equal(t, 524288, above.MaxLength)
}

func TestScaleSamples16Bit(t *testing.T) {
	p := mustProfile(t, "m8190a-wsp") // mult 2047, shift 4

	got, err := wfm.ScaleSamples([]float64{1.0, -1.0, 0.0, 0.5}, p)
	require.NoError(t, err)
	require.Equal(t, []int16{2047 << 4, -2047 << 4, 0, 1023 << 4}, got)
}

func TestScaleSamplesTruncatesTowardZero(t *testing.T) {
	p := profile.Profile{Model: "t", Granularity: 1, MinLength: 1, ScaleMultiplier: 1000, SampleWidth: 16}

	got, err := wfm.ScaleSamples([]float64{0.9996, -0.9996}, p)
	require.NoError(t, err)
	// 999.6 truncates to 999, not 1000, in both directions.
	require.Equal(t, []int16{999, -999}, got)
}

func TestScaleSamples8Bit(t *testing.T) {
	p := mustProfile(t, "m8195a") // mult 127, shift 0, 8-bit

	got, err := wfm.ScaleSamples([]float64{1.0, -1.0, 0.25}, p)
	require.NoError(t, err)
	require.Equal(t, []int16{127, -127, 31}, got)
}

func TestInterleave(t *testing.T) {
	i := []int16{1, 2, 3}
	q := []int16{-1, -2, -3}

	iq, err := wfm.Interleave(i, q)
	require.NoError(t, err)
	require.Len(t, iq, 6)
	for k := range i {
		require.Equal(t, i[k], iq[2*k])
		require.Equal(t, q[k], iq[2*k+1])
	}

	_, err = wfm.Interleave(i, q[:2])
	require.ErrorIs(t, err, wfm.ErrLengthMismatch)
}

func TestEncodeSamplesByteOrder(t *testing.T) {
	le := profile.Profile{SampleWidth: 16}
	be := profile.Profile{SampleWidth: 16, BigEndian: true}

	samples := []int16{0x0102, -2} // -2 = 0xFFFE

	require.Equal(t, []byte{0x02, 0x01, 0xFE, 0xFF}, wfm.EncodeSamples(samples, le))
	require.Equal(t, []byte{0x01, 0x02, 0xFF, 0xFE}, wfm.EncodeSamples(samples, be))

	b8 := profile.Profile{SampleWidth: 8}
	require.Equal(t, []byte{0x7F, 0x81}, wfm.EncodeSamples([]int16{127, -127}, b8))
}

func TestCondition(t *testing.T) {
	p := mustProfile(t, "m8190a-wsp")

	// 100 samples must be tiled 16x to 1600.
	samples := make([]float64, 100)
	for n := range samples {
		samples[n] = 0.5
	}

	payload, count, err := wfm.Condition(samples, p)
	require.NoError(t, err)
	require.Equal(t, 1600, count)
	require.Len(t, payload, 2*1600)
}

func TestConditionIQ(t *testing.T) {
	p := mustProfile(t, "vsg") // gran 2, min 60, big endian

	i := make([]float64, 30)
	q := make([]float64, 30)
	for n := range i {
		i[n] = 1.0
		q[n] = -1.0
	}

	payload, count, err := wfm.ConditionIQ(i, q, p)
	require.NoError(t, err)
	// 30 samples repeat 2x per channel to reach the 60-sample minimum, then
	// interleave to 120 samples, 2 bytes each.
	require.Equal(t, 120, count)
	require.Len(t, payload, 2*120)

	// First pair: I then Q, big endian.
	require.Equal(t, []byte{0x7F, 0xFF}, payload[0:2]) // 32767
	require.Equal(t, []byte{0x80, 0x01}, payload[2:4]) // -32767

	_, _, err = wfm.ConditionIQ(i, q[:10], p)
	require.ErrorIs(t, err, wfm.ErrLengthMismatch)
}
