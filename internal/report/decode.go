// SPDX-License-Identifier: GPL-3.0-only

package report

import (
	"fmt"
	"math"
)

// Report byte offsets for the supported gamepad model.
const (
	offLeftStickX   = 0
	offLeftStickY   = 1
	offRightStickX  = 2
	offRightStickY  = 3
	offHat          = 4 // low nibble only, high nibble unused
	offButtonsLow   = 5
	offButtonsHigh  = 6
	offLeftTrigger  = 7
	offRightTrigger = 8
	offCounter      = 9 // sequence counter, ignored
)

// buttonHighMask selects the defined bits of the high button byte.
const buttonHighMask = 0x1f

const axisCenter = 0x80

// hatTable maps the 4-bit hat nibble to a direction. Nibble 8 is the
// released position; values 9-15 are outside the device's domain and
// also decode to Neutral.
var hatTable = [8]DPad{
	DPadN, DPadNE, DPadE, DPadSE,
	DPadS, DPadSW, DPadW, DPadNW,
}

// ErrReportLength is returned by Decode when the raw buffer does not match
// the device's fixed report length. This indicates a transport
// misconfiguration and is never expected during normal operation.
var ErrReportLength = fmt.Errorf("raw report length must be %d bytes", Length)

// Decode converts one raw input report into a State.
//
// Decoding is total for well-formed input: every bit pattern of a
// Length-sized buffer maps to a defined State, and decoding one report
// never depends on a previous one.
func Decode(raw []byte) (State, error) {
	if len(raw) != Length {
		return State{}, fmt.Errorf("%w, got %d", ErrReportLength, len(raw))
	}

	mask := uint16(raw[offButtonsLow]) | uint16(raw[offButtonsHigh]&buttonHighMask)<<8

	return State{
		LeftStickX:   normalizeAxis(raw[offLeftStickX]),
		LeftStickY:   -normalizeAxis(raw[offLeftStickY]),
		RightStickX:  normalizeAxis(raw[offRightStickX]),
		RightStickY:  -normalizeAxis(raw[offRightStickY]),
		LeftTrigger:  normalizeTrigger(raw[offLeftTrigger]),
		RightTrigger: normalizeTrigger(raw[offRightTrigger]),
		Buttons:      Button(mask),
		DPad:         decodeHat(raw[offHat] & 0x0f),
	}, nil
}

// Encode builds the raw report that decodes to the given state. It is the
// inverse of Decode for states produced by Decode and is used to construct
// synthetic input.
func Encode(s State) []byte {
	mask := uint16(s.Buttons)

	raw := make([]byte, Length)
	raw[offLeftStickX] = denormalizeAxis(s.LeftStickX)
	raw[offLeftStickY] = denormalizeAxis(-s.LeftStickY)
	raw[offRightStickX] = denormalizeAxis(s.RightStickX)
	raw[offRightStickY] = denormalizeAxis(-s.RightStickY)
	raw[offHat] = encodeHat(s.DPad)
	raw[offButtonsLow] = byte(mask)
	raw[offButtonsHigh] = byte(mask>>8) & buttonHighMask
	raw[offLeftTrigger] = denormalizeTrigger(s.LeftTrigger)
	raw[offRightTrigger] = denormalizeTrigger(s.RightTrigger)
	return raw
}

func decodeHat(nibble byte) DPad {
	if int(nibble) < len(hatTable) {
		return hatTable[nibble]
	}
	return DPadNeutral
}

func encodeHat(d DPad) byte {
	for nibble, dir := range hatTable {
		if dir == d {
			return byte(nibble)
		}
	}
	return 0x08 // released
}

// normalizeAxis rescales a raw axis byte to [-1, 1] with the center value
// mapping to exactly 0. The two halves of the raw range are scaled
// independently so both endpoints land exactly on -1 and 1.
func normalizeAxis(raw byte) float64 {
	delta := float64(int(raw) - axisCenter)
	if delta < 0 {
		return delta / axisCenter
	}
	return delta / (axisCenter - 1)
}

func denormalizeAxis(v float64) byte {
	var raw float64
	if v < 0 {
		raw = axisCenter + v*axisCenter
	} else {
		raw = axisCenter + v*(axisCenter-1)
	}
	return byte(math.Round(raw))
}

func normalizeTrigger(raw byte) float64 {
	return float64(raw) / 0xff
}

func denormalizeTrigger(v float64) byte {
	return byte(math.Round(v * 0xff))
}
