package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidFormat = errors.New("invalid response format")

// Resolve turns raw model output into a Result. persona is the name the
// request was built with and is carried on a FoodResult.
//
// A fallback containing the no-food sentinel wins over any other content.
// Otherwise every required field must be present and well typed; nothing is
// zero-filled.
func Resolve(raw, persona string) (Result, error) {
	body := trimCodeFence(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidFormat)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: response is not an object", ErrInvalidFormat)
	}

	if msg, ok := noFood(fields[FieldFallback]); ok {
		return FallbackResult{Fallback: msg}, nil
	}

	d := decoder{fields: fields}
	res := FoodResult{
		CoachAdvice: d.text(FieldCoachAdvice),
		Food:        d.text(FieldFood),
		Benefits:    d.list(FieldBenefits),
		Calories:    d.amount(FieldCalories),
		Carbs:       d.amount(FieldCarbs),
		Sugar:       d.amount(FieldSugar),
		Drawbacks:   d.list(FieldDrawbacks),
		Nutrients:   d.list(FieldNutrients),
		Persona:     persona,
	}
	if d.err != nil {
		return nil, d.err
	}
	return res, nil
}

// noFood reports whether the fallback field carries the no-food sentinel.
// A fallback that is not a string is treated as absent.
func noFood(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err != nil {
		return "", false
	}
	if msg == "" || !strings.Contains(strings.ToLower(msg), NoFoodSentinel) {
		return "", false
	}
	return msg, true
}

// trimCodeFence strips surrounding whitespace and a Markdown code fence, which
// some models wrap around JSON even when asked not to.
func trimCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// decoder pulls required fields out of the raw object and keeps the first
// failure.
type decoder struct {
	fields map[string]json.RawMessage
	err    error
}

func (d *decoder) raw(name string) (json.RawMessage, bool) {
	if d.err != nil {
		return nil, false
	}
	v, ok := d.fields[name]
	if !ok || string(v) == "null" {
		d.fail(name, "is missing")
		return nil, false
	}
	return v, true
}

func (d *decoder) fail(name, reason string) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: field %q %s", ErrInvalidFormat, name, reason)
	}
}

func (d *decoder) text(name string) string {
	v, ok := d.raw(name)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		d.fail(name, "is not a string")
		return ""
	}
	if strings.TrimSpace(s) == "" {
		d.fail(name, "is empty")
		return ""
	}
	return s
}

func (d *decoder) list(name string) []string {
	v, ok := d.raw(name)
	if !ok {
		return nil
	}
	var items []string
	if err := json.Unmarshal(v, &items); err != nil {
		d.fail(name, "is not a list of strings")
		return nil
	}
	if len(items) < minListItems || len(items) > maxListItems {
		d.fail(name, fmt.Sprintf("has %d entries, want %d to %d", len(items), minListItems, maxListItems))
		return nil
	}
	return items
}

func (d *decoder) amount(name string) float64 {
	v, ok := d.raw(name)
	if !ok {
		return 0
	}
	var n float64
	if err := json.Unmarshal(v, &n); err != nil {
		d.fail(name, "is not a number")
		return 0
	}
	if n < 0 {
		d.fail(name, "is negative")
		return 0
	}
	return n
}
