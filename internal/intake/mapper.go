package intake

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dgs-intellisol/nexuscrux-website/internal/store"
)

// Metadata is captured from request headers once, at creation.
type Metadata struct {
	UserAgent *string
	Referrer  *string
	IPAddress *string
}

// MetadataFromRequest reads the user agent, referrer and client IP headers.
// Missing headers stay nil.
func MetadataFromRequest(r *http.Request) Metadata {
	ip := headerValue(r, "X-Forwarded-For")
	if ip == nil {
		ip = headerValue(r, "X-Real-IP")
	}
	return Metadata{
		UserAgent: headerValue(r, "User-Agent"),
		Referrer:  headerValue(r, "Referer"),
		IPAddress: ip,
	}
}

func headerValue(r *http.Request, name string) *string {
	v := strings.TrimSpace(r.Header.Get(name))
	if v == "" {
		return nil
	}
	return &v
}

// BuildRow converts a validated payload into a row with every column of the
// kind present. Absent optional values are explicit nils.
func BuildRow(k *Kind, payload map[string]any, meta Metadata) (store.Row, error) {
	row := make(store.Row, len(k.Fields)+4)
	for _, f := range k.Fields {
		v, err := coerce(f, lookup(payload, f.Keys))
		if err != nil {
			return nil, err
		}
		if v == nil && f.Type == Boolean {
			v = false
		}
		row[f.Column] = v
	}
	// Stored addresses match what ValidEmail accepted.
	for _, key := range k.Emails {
		if f, ok := k.field(key); ok {
			if s, ok := row[f.Column].(string); ok {
				row[f.Column] = strings.TrimSpace(s)
			}
		}
	}
	row["status"] = k.InitialStatus
	row["user_agent"] = optional(meta.UserAgent)
	row["referrer"] = optional(meta.Referrer)
	row["ip_address"] = optional(meta.IPAddress)
	return row, nil
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// coerce turns a raw JSON value into the column value for f. Empty values map to nil.
func coerce(f Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}

	switch f.Type {
	case Integer:
		n, err := toInt(v)
		if err != nil {
			return nil, &ValidationError{Message: fmt.Sprintf("%s must be a whole number", f.Column), Field: f.Column}
		}
		return n, nil
	case Number:
		d, err := toDecimal(v)
		if err != nil {
			return nil, &ValidationError{Message: fmt.Sprintf("%s must be a number", f.Column), Field: f.Column}
		}
		return d, nil
	case Boolean:
		b, err := toBool(v)
		if err != nil {
			return nil, &ValidationError{Message: fmt.Sprintf("%s must be true or false", f.Column), Field: f.Column}
		}
		return b, nil
	default:
		return toText(v), nil
	}
}

func toInt(v any) (int64, error) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, nil
		}
		f, err := t.Float64()
		if err != nil || f != float64(int64(f)) {
			return 0, fmt.Errorf("not an integer: %s", t)
		}
		return int64(f), nil
	case float64:
		if t != float64(int64(t)) {
			return 0, fmt.Errorf("not an integer: %v", t)
		}
		return int64(t), nil
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	}
	return 0, fmt.Errorf("unsupported type %T", v)
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case json.Number:
		return decimal.NewFromString(t.String())
	case float64:
		return decimal.NewFromFloat(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(t))
	}
	return decimal.Zero, fmt.Errorf("unsupported type %T", v)
}

func toBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(t))
	}
	return false, fmt.Errorf("unsupported type %T", v)
}

func toText(v any) any {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool, float64, int, int64:
		return fmt.Sprint(t)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}
