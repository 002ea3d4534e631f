// SPDX-License-Identifier: GPL-3.0-only

// Package report decodes raw gamepad input reports into a structured,
// typed controller state and computes field-level diffs between states.
package report

import (
	"fmt"
	"strings"
)

// Length is the fixed size of one input report in bytes.
const Length = 10

// Button identifies a single gamepad button as a bit in the button mask.
type Button uint16

// Button bitmasks, matching the wire layout of report bytes 5 and 6.
const (
	ButtonA     Button = 0x0001
	ButtonB     Button = 0x0002
	ButtonX     Button = 0x0004
	ButtonY     Button = 0x0008
	ButtonL1    Button = 0x0010 // Left bumper
	ButtonR1    Button = 0x0020 // Right bumper
	ButtonL2    Button = 0x0040 // Left trigger click
	ButtonR2    Button = 0x0080 // Right trigger click
	ButtonBack  Button = 0x0100
	ButtonStart Button = 0x0200
	ButtonL3    Button = 0x0400 // Left stick button
	ButtonR3    Button = 0x0800 // Right stick button
	ButtonHome  Button = 0x1000 // Logitech/Home button (center logo)
)

// Buttons lists all known buttons in wire-bit order.
var Buttons = []Button{
	ButtonA, ButtonB, ButtonX, ButtonY,
	ButtonL1, ButtonR1, ButtonL2, ButtonR2,
	ButtonBack, ButtonStart, ButtonL3, ButtonR3,
	ButtonHome,
}

// Name returns the short lowercase name of the button, used as the last
// segment of its node path.
func (b Button) Name() string {
	switch b {
	case ButtonA:
		return "a"
	case ButtonB:
		return "b"
	case ButtonX:
		return "x"
	case ButtonY:
		return "y"
	case ButtonL1:
		return "l1"
	case ButtonR1:
		return "r1"
	case ButtonL2:
		return "l2"
	case ButtonR2:
		return "r2"
	case ButtonBack:
		return "back"
	case ButtonStart:
		return "start"
	case ButtonL3:
		return "l3"
	case ButtonR3:
		return "r3"
	case ButtonHome:
		return "home"
	default:
		return "unknown"
	}
}

// DPad is the discrete directional pad position.
type DPad uint8

const (
	DPadNeutral DPad = iota
	DPadN
	DPadNE
	DPadE
	DPadSE
	DPadS
	DPadSW
	DPadW
	DPadNW
)

func (d DPad) String() string {
	switch d {
	case DPadN:
		return "n"
	case DPadNE:
		return "ne"
	case DPadE:
		return "e"
	case DPadSE:
		return "se"
	case DPadS:
		return "s"
	case DPadSW:
		return "sw"
	case DPadW:
		return "w"
	case DPadNW:
		return "nw"
	default:
		return "neutral"
	}
}

// State is a decoded snapshot of the controller.
//
// Stick axes are normalized to [-1, 1] with the rest position at exactly 0
// and up/right positive. Triggers are normalized to [0, 1] with 0 at rest.
type State struct {
	LeftStickX   float64
	LeftStickY   float64
	RightStickX  float64
	RightStickY  float64
	LeftTrigger  float64
	RightTrigger float64
	Buttons      Button
	DPad         DPad
}

// Pressed reports whether the given button is held in this state.
func (s State) Pressed(b Button) bool {
	return s.Buttons&b != 0
}

// PressedNames returns the names of all held buttons in wire-bit order.
func (s State) PressedNames() []string {
	names := make([]string, 0, len(Buttons))
	for _, b := range Buttons {
		if s.Pressed(b) {
			names = append(names, b.Name())
		}
	}
	return names
}

// String renders a one-line summary of the state, suitable for the
// full-data node and debug logs.
func (s State) String() string {
	buttons := strings.Join(s.PressedNames(), " ")
	return fmt.Sprintf("ls(%.3f,%.3f) rs(%.3f,%.3f) lt:%.3f rt:%.3f btn[%s] dpad:%s",
		s.LeftStickX, s.LeftStickY,
		s.RightStickX, s.RightStickY,
		s.LeftTrigger, s.RightTrigger,
		buttons, s.DPad)
}
