package modinfo

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// LenientString accepts strings, numbers and booleans. Anything else reads as empty.
type LenientString string

func (s *LenientString) UnmarshalJSON(data []byte) error {
	*s = LenientString(scalarText(data))
	return nil
}

// LenientStrings accepts a list of scalars or a single comma separated string.
type LenientStrings []string

func (s *LenientStrings) UnmarshalJSON(data []byte) error {
	*s = nil
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if json.Unmarshal(trimmed, &items) != nil {
			return nil
		}
		for _, item := range items {
			if text := strings.TrimSpace(scalarText(item)); text != "" {
				*s = append(*s, text)
			}
		}
	case '"':
		for _, part := range strings.Split(scalarText(trimmed), ",") {
			if text := strings.TrimSpace(part); text != "" {
				*s = append(*s, text)
			}
		}
	}
	return nil
}

// LenientBool accepts booleans, "true"/"false" in any case and numbers. Valid is false when the value was unusable.
type LenientBool struct {
	Value bool
	Valid bool
}

func (b *LenientBool) UnmarshalJSON(data []byte) error {
	*b = LenientBool{}
	text := strings.ToLower(strings.TrimSpace(scalarText(data)))
	if text == "" {
		return nil
	}
	if parsed, err := strconv.ParseBool(text); err == nil {
		*b = LenientBool{Value: parsed, Valid: true}
		return nil
	}
	if number, err := strconv.ParseFloat(text, 64); err == nil {
		*b = LenientBool{Value: number != 0, Valid: true}
	}
	return nil
}

// LenientInt accepts integers, floats and numeric strings.
type LenientInt int

func (i *LenientInt) UnmarshalJSON(data []byte) error {
	*i = 0
	text := strings.TrimSpace(scalarText(data))
	if number, err := strconv.ParseFloat(text, 64); err == nil {
		*i = LenientInt(number)
	}
	return nil
}

// LenientDependencies reads a {"modid": "version"} object, converting scalar versions to text.
type LenientDependencies map[string]string

func (d *LenientDependencies) UnmarshalJSON(data []byte) error {
	*d = nil
	var raw map[string]json.RawMessage
	if json.Unmarshal(data, &raw) != nil || raw == nil {
		return nil
	}
	deps := make(LenientDependencies, len(raw))
	for id, value := range raw {
		deps[id] = scalarText(value)
	}
	*d = deps
	return nil
}

func scalarText(data []byte) string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ""
	}

	switch trimmed[0] {
	case '"':
		var text string
		if json.Unmarshal(trimmed, &text) != nil {
			return ""
		}
		return text
	case 't', 'f':
		var value bool
		if json.Unmarshal(trimmed, &value) != nil {
			return ""
		}
		return strconv.FormatBool(value)
	case '{', '[', 'n':
		return ""
	default:
		var number json.Number
		if json.Unmarshal(trimmed, &number) != nil {
			return ""
		}
		return number.String()
	}
}
