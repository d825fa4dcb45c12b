// Package validation checks incoming request payloads before any store
// mutation. Payloads are the decoded JSON objects, so a key's presence decides
// whether partial-update rules apply to it. Functions never panic; callers turn
// an invalid Result into a 400 response.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"lessonbook-server-go/schedule"
)

const (
	MaxNameLength = 100
	MaxRate       = 100000
	DateLayout    = "2006-01-02"
)

var validate = validator.New()

// Result lists every violation found, in rule order.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

type collector struct {
	errs []string
}

func (c *collector) add(msg string) {
	c.errs = append(c.errs, msg)
}

func (c *collector) result() Result {
	return Result{Valid: len(c.errs) == 0, Errors: c.errs}
}

// check runs a validator tag against value and records the message mapped to
// the first failing tag.
func (c *collector) check(value interface{}, tag string, messages map[string]string) bool {
	err := validate.Var(value, tag)
	if err == nil {
		return true
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		if msg, ok := messages[fieldErrs[0].Tag()]; ok {
			c.add(msg)
			return false
		}
	}
	c.add(messages["default"])
	return false
}

// AsNumber converts a decoded JSON value into a finite float64.
func AsNumber(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func (c *collector) name(body map[string]interface{}) {
	raw, ok := body["name"]
	if !ok || raw == nil {
		c.add("Name is required")
		return
	}
	name, ok := raw.(string)
	if !ok {
		c.add("Name must be a string")
		return
	}
	c.check(strings.TrimSpace(name), fmt.Sprintf("required,max=%d", MaxNameLength), map[string]string{
		"required": "Name is required",
		"max":      fmt.Sprintf("Name must be %d characters or less", MaxNameLength),
		"default":  "Name is invalid",
	})
}

func (c *collector) rate(body map[string]interface{}) {
	raw, ok := body["rate"]
	if !ok || raw == nil {
		c.add("Rate is required")
		return
	}
	rate, ok := AsNumber(raw)
	if !ok {
		c.add("Rate must be a valid number")
		return
	}
	c.check(rate, fmt.Sprintf("gte=0,lte=%d", MaxRate), map[string]string{
		"gte":     "Rate must be a non-negative number",
		"lte":     fmt.Sprintf("Rate must not exceed %d", MaxRate),
		"default": "Rate is invalid",
	})
}

// Student validates a create payload: name and rate are both required.
func Student(body map[string]interface{}) Result {
	c := &collector{}
	c.name(body)
	c.rate(body)
	return c.result()
}

// StudentUpdate validates only the fields present in a partial update.
func StudentUpdate(body map[string]interface{}) Result {
	c := &collector{}
	if _, ok := body["name"]; ok {
		c.name(body)
	}
	if _, ok := body["rate"]; ok {
		c.rate(body)
	}
	return c.result()
}

func (c *collector) requiredString(body map[string]interface{}, key, label string) (string, bool) {
	s, ok := body[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		c.add(label + " is required")
		return "", false
	}
	return s, true
}

func (c *collector) date(body map[string]interface{}, key, label string) {
	s, ok := c.requiredString(body, key, label)
	if !ok {
		return
	}
	c.check(s, "datetime="+DateLayout, map[string]string{
		"default": label + " must be a valid date (YYYY-MM-DD)",
	})
}

// Event validates a create payload. Whether studentId references an existing
// student is checked by the caller.
func Event(body map[string]interface{}) Result {
	c := &collector{}
	c.date(body, "date", "Date")
	c.requiredString(body, "time", "Time")
	c.requiredString(body, "studentId", "Student ID")
	if notes, ok := body["notes"]; ok && notes != nil {
		if _, isString := notes.(string); !isString {
			c.add("Notes must be a string")
		}
	}
	return c.result()
}

// EventUpdate validates only the fields present in a partial update.
func EventUpdate(body map[string]interface{}) Result {
	c := &collector{}
	if _, ok := body["date"]; ok {
		c.date(body, "date", "Date")
	}
	if _, ok := body["time"]; ok {
		c.requiredString(body, "time", "Time")
	}
	if _, ok := body["studentId"]; ok {
		c.requiredString(body, "studentId", "Student ID")
	}
	if notes, ok := body["notes"]; ok && notes != nil {
		if _, isString := notes.(string); !isString {
			c.add("Notes must be a string")
		}
	}
	return c.result()
}

// CopyRequest validates a bulk copy payload. An unrecognised copyType is
// rejected instead of silently copying nothing.
func CopyRequest(body map[string]interface{}) Result {
	c := &collector{}
	if copyType, ok := c.requiredString(body, "copyType", "Copy type"); ok {
		c.check(copyType, "oneof="+schedule.CopyWeek+" "+schedule.CopyMonth, map[string]string{
			"default": "Copy type must be 'week' or 'month'",
		})
	}
	c.date(body, "fromDate", "From date")
	c.date(body, "toDate", "To date")
	return c.result()
}

// PaidCount validates an absolute counter value.
func PaidCount(body map[string]interface{}) Result {
	c := &collector{}
	raw, ok := body["count"]
	if !ok || raw == nil {
		c.add("Count is required")
		return c.result()
	}
	count, ok := AsNumber(raw)
	if !ok {
		c.add("Count must be a valid number")
		return c.result()
	}
	if c.check(count, "gte=0", map[string]string{"default": "Count must be a non-negative number"}) {
		c.wholeNumber(count, "Count")
	}
	return c.result()
}

// PaidLessonsAdd validates a relative counter increment.
func PaidLessonsAdd(body map[string]interface{}) Result {
	c := &collector{}
	raw, ok := body["lessons"]
	if !ok || raw == nil {
		c.add("Lessons is required")
		return c.result()
	}
	lessons, ok := AsNumber(raw)
	if !ok {
		c.add("Lessons must be a valid number")
		return c.result()
	}
	if c.check(lessons, "gt=0", map[string]string{"default": "Lessons must be a positive number"}) {
		c.wholeNumber(lessons, "Lessons")
	}
	return c.result()
}

// wholeNumber rejects fractional lesson counts.
func (c *collector) wholeNumber(n float64, label string) {
	if n != math.Trunc(n) {
		c.add(label + " must be a whole number")
	}
}

// Notes validates a notes update.
func Notes(body map[string]interface{}) Result {
	c := &collector{}
	if _, ok := body["notes"].(string); !ok {
		c.add("Notes must be a string")
	}
	return c.result()
}

// Announcement validates a new announcement.
func Announcement(body map[string]interface{}) Result {
	c := &collector{}
	c.requiredString(body, "title", "Title")
	c.requiredString(body, "message", "Message")
	if active, ok := body["active"]; ok && active != nil {
		if _, isBool := active.(bool); !isBool {
			c.add("Active must be a boolean")
		}
	}
	return c.result()
}

// Settings validates a settings update.
func Settings(body map[string]interface{}) Result {
	c := &collector{}
	if _, ok := body["isDarkMode"].(bool); !ok {
		c.add("isDarkMode must be a boolean")
	}
	return c.result()
}
