package feed

import (
	"fmt"
	"strings"
)

// CreatorField names one independently editable creator setting.
type CreatorField string

const (
	FieldEnabled  CreatorField = "enabled"
	FieldPriority CreatorField = "priority"
	FieldWeight   CreatorField = "weight"
)

// CreatorFields lists the editable fields in display order.
var CreatorFields = []CreatorField{FieldEnabled, FieldPriority, FieldWeight}

// ParseCreatorField normalizes a field name.
func ParseCreatorField(value string) (CreatorField, error) {
	f := CreatorField(strings.ToLower(strings.TrimSpace(value)))
	switch f {
	case FieldEnabled, FieldPriority, FieldWeight:
		return f, nil
	}
	return "", fmt.Errorf("unknown creator field %q", value)
}

// Get returns the field's value on c. Enabled is reported as 0 or 1.
func (f CreatorField) Get(c Creator) int {
	switch f {
	case FieldEnabled:
		if c.Enabled {
			return 1
		}
		return 0
	case FieldPriority:
		return c.Priority
	case FieldWeight:
		return c.Weight
	}
	return 0
}

// Set writes value into the field on c.
func (f CreatorField) Set(c *Creator, value int) {
	switch f {
	case FieldEnabled:
		c.Enabled = value != 0
	case FieldPriority:
		c.Priority = value
	case FieldWeight:
		c.Weight = value
	}
}

// Patch builds a single-field partial update.
func (f CreatorField) Patch(uid int64, value int) CreatorPatch {
	patch := CreatorPatch{UID: uid}
	switch f {
	case FieldEnabled:
		enabled := value != 0
		patch.Enabled = &enabled
	case FieldPriority:
		v := value
		patch.Priority = &v
	case FieldWeight:
		v := value
		patch.Weight = &v
	}
	return patch
}

// Format renders a field value for display.
func (f CreatorField) Format(value int) string {
	if f == FieldEnabled {
		if value != 0 {
			return "on"
		}
		return "off"
	}
	return fmt.Sprintf("%d", value)
}
