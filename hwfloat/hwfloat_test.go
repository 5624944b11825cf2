package hwfloat_test

import (
	"math"
	"testing"

	"github.com/jdekker/awgstream/hwfloat"
	"github.com/stretchr/testify/require"
)

// Power fields use offset -26 with a 10-bit mantissa and 5-bit exponent.
const (
	powerOffset   = -26
	powerMantBits = 10
	powerExpBits  = 5
)

func TestFloatingBitsPowerField(t *testing.T) {
	// 0 dB -> linear 1.0: exponent 26, mantissa 0.
	got := hwfloat.FloatingBits(1.0, powerOffset, powerMantBits, powerExpBits)
	require.Equal(t, uint32(26)<<10, got)

	// 1 dB -> linear 1.12201845...: mantissa (v-1)*1024+0.5 = 125.
	v := math.Pow(10, 1.0/20)
	got = hwfloat.FloatingBits(v, powerOffset, powerMantBits, powerExpBits)
	require.Equal(t, uint32(26)<<10|125, got)
}

func TestFloatingBitsNonPositive(t *testing.T) {
	require.Zero(t, hwfloat.FloatingBits(0, powerOffset, powerMantBits, powerExpBits))
	require.Zero(t, hwfloat.FloatingBits(-3.5, powerOffset, powerMantBits, powerExpBits))
	require.Zero(t, hwfloat.FloatingBits(math.NaN(), powerOffset, powerMantBits, powerExpBits))
}

func TestFloatingBitsTooSmall(t *testing.T) {
	// log2(value) far below the offset: exponent would be negative.
	require.Zero(t, hwfloat.FloatingBits(1e-12, 0, 4, 3))
}

func TestFloatingBitsMantissaCarry(t *testing.T) {
	// 4-bit mantissa, 3-bit exponent, offset 0. 1.99 rounds the mantissa to
	// 16, which carries into the exponent: exponent 1, mantissa 0.
	got := hwfloat.FloatingBits(1.99, 0, 4, 3)
	require.Equal(t, uint32(1)<<4, got)
}

func TestFloatingBitsSaturates(t *testing.T) {
	// Exponent 8 exceeds the 3-bit field: both fields saturate.
	got := hwfloat.FloatingBits(256, 0, 4, 3)
	require.Equal(t, uint32(7)<<4|15, got)
}

func TestMantissaExponentSmallValues(t *testing.T) {
	exp, mant := hwfloat.MantissaExponent(100.3, 13, 4)
	require.Zero(t, exp)
	require.Equal(t, uint32(100), mant)

	exp, mant = hwfloat.MantissaExponent(100.6, 13, 4)
	require.Zero(t, exp)
	require.Equal(t, uint32(101), mant)

	exp, mant = hwfloat.MantissaExponent(0, 13, 4)
	require.Zero(t, exp)
	require.Zero(t, mant)
}

func TestMantissaExponentLargeValues(t *testing.T) {
	exp, mant := hwfloat.MantissaExponent(10000, 13, 4)
	require.Equal(t, uint32(1), exp)
	require.Equal(t, uint32(5000), mant)
}

func TestMantissaExponentCarryRule(t *testing.T) {
	// Just below the carry threshold: mantissa rounds within range.
	exp, mant := hwfloat.MantissaExponent(16382.9, 13, 4)
	require.Equal(t, uint32(1), exp)
	require.Equal(t, uint32(8191), mant)

	// At the threshold the mantissa resets to the half-range midpoint and
	// the exponent bumps; the field never overflows silently.
	exp, mant = hwfloat.MantissaExponent(16383.2, 13, 4)
	require.Equal(t, uint32(2), exp)
	require.Equal(t, uint32(1)<<12, mant)
}

func TestMantissaExponentExponentSaturates(t *testing.T) {
	exp, mant := hwfloat.MantissaExponent(math.Ldexp(1, 31), 13, 4)
	require.Equal(t, uint32(15), exp)
	require.Equal(t, uint32(8191), mant)
}

func TestMantissaExponentMonotonic(t *testing.T) {
	// Sweeping the input never decreases the decoded magnitude.
	decode := func(v float64) float64 {
		exp, mant := hwfloat.MantissaExponent(v, 13, 4)
		return math.Ldexp(float64(mant), int(exp))
	}
	prev := decode(1.0)
	for v := 1.0; v < 1e6; v *= 1.01 {
		cur := decode(v)
		require.GreaterOrEqual(t, cur, prev, "input %g", v)
		prev = cur
	}
}

func TestChirpRateBits(t *testing.T) {
	// Zero rate encodes as zero.
	require.Zero(t, hwfloat.ChirpRateBits(0, hwfloat.DefaultChirpRateRes))

	// Exactly 100 clocks: exponent 0, mantissa 100.
	got := hwfloat.ChirpRateBits(100*hwfloat.DefaultChirpRateRes, hwfloat.DefaultChirpRateRes)
	require.Equal(t, uint32(100), got)

	// 10000 clocks: mantissa 5000, exponent 1 (odd), so the stored exponent
	// rounds up to 1 after halving and the mantissa halves to 2500.
	got = hwfloat.ChirpRateBits(10000*hwfloat.DefaultChirpRateRes, hwfloat.DefaultChirpRateRes)
	require.Equal(t, uint32(1)<<13|2500, got)

	// A zero resolution falls back to the default constant.
	require.Equal(t,
		hwfloat.ChirpRateBits(1234.5, hwfloat.DefaultChirpRateRes),
		hwfloat.ChirpRateBits(1234.5, 0))
}
