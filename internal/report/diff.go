// SPDX-License-Identifier: GPL-3.0-only

package report

import "strings"

// Field identifies one published value of the controller state. Its string
// value is the node path relative to the configured address root, so the
// field-to-node mapping stays a single auditable table.
type Field string

const (
	FieldLeftStickX   Field = "left-stick/x"
	FieldLeftStickY   Field = "left-stick/y"
	FieldRightStickX  Field = "right-stick/x"
	FieldRightStickY  Field = "right-stick/y"
	FieldLeftTrigger  Field = "trigger/left"
	FieldRightTrigger Field = "trigger/right"
	FieldDPad         Field = "dpad"
)

const buttonFieldPrefix = "buttons/"

// ButtonField returns the field for a single button, e.g. "buttons/a".
func ButtonField(b Button) Field {
	return Field(buttonFieldPrefix + b.Name())
}

var buttonsByName = func() map[string]Button {
	m := make(map[string]Button, len(Buttons))
	for _, b := range Buttons {
		m[b.Name()] = b
	}
	return m
}()

// fields is the complete field list in publish order.
var fields = func() []Field {
	fs := []Field{
		FieldLeftStickX, FieldLeftStickY,
		FieldRightStickX, FieldRightStickY,
		FieldLeftTrigger, FieldRightTrigger,
	}
	for _, b := range Buttons {
		fs = append(fs, ButtonField(b))
	}
	return append(fs, FieldDPad)
}()

// Fields returns every field in stable publish order.
func Fields() []Field {
	return append([]Field(nil), fields...)
}

// FieldValue extracts the value a field carries in the given state. The
// result is a bool for button fields, a float64 for axis fields and a DPad
// for the d-pad field.
func FieldValue(s State, f Field) any {
	if name, ok := strings.CutPrefix(string(f), buttonFieldPrefix); ok {
		return s.Pressed(buttonsByName[name])
	}

	switch f {
	case FieldLeftStickX:
		return s.LeftStickX
	case FieldLeftStickY:
		return s.LeftStickY
	case FieldRightStickX:
		return s.RightStickX
	case FieldRightStickY:
		return s.RightStickY
	case FieldLeftTrigger:
		return s.LeftTrigger
	case FieldRightTrigger:
		return s.RightTrigger
	default:
		return s.DPad
	}
}

// Diff returns the fields whose values differ between prev and cur, in
// stable publish order. A nil prev means no state has been published yet
// and every field is reported changed, forcing an initial full publish.
//
// Axis comparison is exact: normalization is deterministic arithmetic, so
// identical raw input always yields identical values and no epsilon is
// needed.
func Diff(prev *State, cur State) []Field {
	if prev == nil {
		return Fields()
	}

	var changed []Field
	for _, f := range fields {
		if FieldValue(*prev, f) != FieldValue(cur, f) {
			changed = append(changed, f)
		}
	}
	return changed
}
