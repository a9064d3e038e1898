package intake

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgs-intellisol/nexuscrux-website/internal/store"
)

// ErrNothingToUpdate is returned when a PATCH body carries no usable field.
var ErrNothingToUpdate = errors.New("intake: no fields to update")

// BuildPatch turns a PATCH body into a partial row. Empty values are ignored,
// status must belong to the kind's enum, and the kind's timestamp stamps are
// applied for columns the caller did not set. Any status may follow any other.
func BuildPatch(k *Kind, body map[string]any, now time.Time) (store.Row, error) {
	if k.StrictUpdates {
		for key := range body {
			if !k.allowsUpdateKey(key) {
				return nil, &ValidationError{
					Message:     fmt.Sprintf("Field %s cannot be updated. Allowed fields: %s", key, strings.Join(k.updateKeys(), ", ")),
					Field:       key,
					ValidValues: k.updateKeys(),
				}
			}
		}
	}

	patch := store.Row{}
	for _, f := range k.Updates {
		raw := lookup(body, f.Keys)
		if isEmptyUpdate(f, raw) {
			continue
		}
		v, err := coerce(f, raw)
		if err != nil {
			return nil, err
		}
		patch[f.Column] = v
	}
	if len(patch) == 0 {
		return nil, ErrNothingToUpdate
	}

	for _, f := range k.Updates {
		v, ok := patch[f.Column]
		if !ok || len(f.Enum) == 0 {
			continue
		}
		if err := checkEnum(f, v); err != nil {
			return nil, err
		}
	}

	status, _ := patch["status"].(string)
	for _, s := range k.Stamps {
		if _, supplied := patch[s.Column]; supplied {
			continue
		}
		_, triggered := patch[s.Trigger]
		if (s.Status != "" && s.Status == status) || (s.Trigger != "" && triggered) {
			patch[s.Column] = now
		}
	}
	return patch, nil
}

// isEmptyUpdate treats nil and blank strings as "not supplied". Booleans are
// kept when false so a verification flag can be cleared.
func isEmptyUpdate(f Field, v any) bool {
	if v == nil {
		return true
	}
	if f.Type == Boolean {
		return false
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// StatusOf returns the status carried by a patch, if any.
func StatusOf(patch store.Row) (string, bool) {
	s, ok := patch["status"].(string)
	return s, ok
}
