// Package hwfloat encodes real values into the compact mantissa/exponent
// representations used by signal generator hardware registers that cannot
// hold IEEE 754 floats. Two encodings exist: a biased form (FloatingBits)
// used for power ratios, and a plain mantissa*2^exponent form
// (MantissaExponent) used for chirp parameters.
package hwfloat

import "math"

// DefaultChirpRateRes is the hardware chirp-rate resolution in Hz/us per
// count. The constant has no published derivation; it is carried as an
// opaque calibration value and must not be re-derived.
const DefaultChirpRateRes = 21.822

const (
	chirpMantissaBits = 13
	chirpExponentBits = 4
)

// FloatingBits converts value into the biased hardware float
// mantissa * 2^(exponent + exponentOffset) and packs it as
// (exponent << mantissaBits) | mantissa.
//
// Values too large to represent saturate both fields. If rounding overflows
// the mantissa, the carry propagates into the exponent (mantissa resets to
// zero) unless the exponent is already at its maximum, in which case the
// mantissa saturates. Non-positive or too-small values encode as zero.
func FloatingBits(value float64, exponentOffset int, mantissaBits, exponentBits uint) uint32 {
	maxExponent := int(1<<exponentBits - 1)
	maxMantissa := uint32(1<<mantissaBits - 1)

	if value <= 0 || math.IsNaN(value) {
		return 0
	}

	exponent := int(math.Floor(math.Log2(value) - float64(exponentOffset)))
	var mantissa uint32

	switch {
	case exponent > maxExponent:
		exponent = maxExponent
		mantissa = maxMantissa
	case exponent >= 0:
		mantissaScale := float64(uint64(1) << mantissaBits)
		effectiveExponent := exponentOffset + exponent
		mantissa = uint32((math.Ldexp(value, -effectiveExponent)-1)*mantissaScale + 0.5)
		if mantissa > maxMantissa {
			// Rounding overflowed the mantissa.
			if exponent < maxExponent {
				mantissa = 0
				exponent++
			} else {
				mantissa = maxMantissa
			}
		}
	default:
		// Too small to represent.
		mantissa = 0
		exponent = 0
	}

	return uint32(exponent)<<mantissaBits | mantissa
}

// MantissaExponent converts value to the hardware mantissa*2^exponent form.
// Values that fit in the mantissa alone get exponent 0 and a rounded,
// clamped mantissa. Larger values are decomposed by binary exponent; if
// rounding would push the mantissa past its maximum, the exponent is bumped
// and the mantissa resets to the half-range midpoint. An exponent beyond its
// field width saturates both fields rather than overflowing.
func MantissaExponent(value float64, mantissaBits, exponentBits uint) (exponent, mantissa uint32) {
	maxMantissa := uint32(1<<mantissaBits - 1)
	maxExponent := uint32(1<<exponentBits - 1)

	if value <= 0 || math.IsNaN(value) {
		return 0, 0
	}

	if value < float64(maxMantissa)+0.5 {
		mantissa = uint32(value + 0.5)
		if mantissa > maxMantissa {
			mantissa = maxMantissa
		}
		return 0, mantissa
	}

	_, exp := math.Frexp(value)
	exp -= int(mantissaBits)
	fracMantissa := value / math.Ldexp(1, exp)

	// Round up to the next power step when the fraction sits at the top of
	// the mantissa range.
	if fracMantissa > float64(maxMantissa)+0.5-1e-9 {
		mantissa = 1 << (mantissaBits - 1)
		exp++
	} else {
		mantissa = uint32(fracMantissa + 0.5)
		if mantissa > maxMantissa {
			mantissa = maxMantissa
		}
	}

	if uint32(exp) > maxExponent {
		return maxExponent, maxMantissa
	}
	return uint32(exp), mantissa
}

// ChirpRateBits encodes a chirp rate (Hz/us) into the 17-bit chirp register
// layout: 13 mantissa bits below a 4-bit exponent that the hardware stores
// pre-scaled by two. An odd exponent is rounded up before halving, with a
// compensating divide of the mantissa. The resolution converts the rate into
// hardware clocks; pass DefaultChirpRateRes unless the register has been
// recalibrated.
func ChirpRateBits(rateHzPerUs, resolution float64) uint32 {
	if resolution == 0 {
		resolution = DefaultChirpRateRes
	}
	mantissaMask := uint32(1<<chirpMantissaBits - 1)

	exponent, mantissa := MantissaExponent(rateHzPerUs/resolution, chirpMantissaBits, chirpExponentBits)
	if exponent&0x01 != 0 {
		exponent++
		exponent >>= 1
		mantissa /= 2
	} else {
		exponent >>= 1
	}

	return exponent<<chirpMantissaBits | mantissa&mantissaMask
}
