package intake

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/net/idna"
)

// ValidationError is a client error reported as 400.
type ValidationError struct {
	Message     string
	Field       string
	ValidValues []string
}

func (e *ValidationError) Error() string { return e.Message }

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail checks for a local part, an @ and a dotted domain. The domain is
// converted to its ASCII form first so internationalised domains pass.
func ValidEmail(addr string) bool {
	addr = strings.TrimSpace(addr)
	at := strings.LastIndex(addr, "@")
	if at <= 0 || at == len(addr)-1 {
		return false
	}
	domain, err := idna.Lookup.ToASCII(addr[at+1:])
	if err != nil {
		return false
	}
	return emailPattern.MatchString(addr[:at+1] + domain)
}

// Validate runs the required-field, email and enum checks for a create payload.
func Validate(k *Kind, payload map[string]any) error {
	var missing []string
	for _, key := range k.Required {
		if isBlank(lookupRequired(k, payload, key)) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{
			Message: "Missing required fields: " + requiredPhrase(k.Required),
			Field:   missing[0],
		}
	}

	for _, key := range k.Emails {
		v, _ := lookupRequired(k, payload, key).(string)
		if !ValidEmail(v) {
			return &ValidationError{Message: fmt.Sprintf("Invalid email address: %s", key), Field: key}
		}
	}

	for _, f := range k.Fields {
		if len(f.Enum) == 0 {
			continue
		}
		v := lookup(payload, f.Keys)
		if isBlank(v) {
			continue
		}
		if err := checkEnum(f, v); err != nil {
			return err
		}
	}
	return nil
}

func checkEnum(f Field, v any) error {
	if s, _ := v.(string); slices.Contains(f.Enum, s) {
		return nil
	}
	return &ValidationError{
		Message:     fmt.Sprintf("Invalid %s. Must be one of: %s", f.Column, strings.Join(f.Enum, ", ")),
		Field:       f.Column,
		ValidValues: f.Enum,
	}
}

func lookupRequired(k *Kind, payload map[string]any, key string) any {
	if f, ok := k.field(key); ok {
		return lookup(payload, f.Keys)
	}
	return payload[key]
}

// lookup returns the first non-nil value found under keys.
func lookup(payload map[string]any, keys []string) any {
	for _, key := range keys {
		if v, ok := payload[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case json.Number:
		return t.String() == ""
	case bool:
		return !t
	}
	return false
}

// requiredPhrase renders "name, email, and company are required".
func requiredPhrase(keys []string) string {
	switch len(keys) {
	case 0:
		return ""
	case 1:
		return keys[0] + " is required"
	case 2:
		return keys[0] + " and " + keys[1] + " are required"
	}
	return strings.Join(keys[:len(keys)-1], ", ") + ", and " + keys[len(keys)-1] + " are required"
}
