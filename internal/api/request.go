package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// formFields reads the named fields from a JSON body, a urlencoded or
// multipart form, or the query string, in that order of preference.
func formFields(c *fiber.Ctx, names ...string) (map[string]string, error) {
	values := make(map[string]string, len(names))

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) && len(bytes.TrimSpace(c.Body())) > 0 {
		var body map[string]any
		dec := json.NewDecoder(bytes.NewReader(c.Body()))
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid JSON body")
		}
		for _, name := range names {
			if v, ok := body[name]; ok && v != nil {
				values[name] = fmt.Sprint(v)
			}
		}
	}

	for _, name := range names {
		if values[name] == "" {
			values[name] = c.FormValue(name)
		}
	}
	return values, nil
}

// queryInt parses an optional integer query parameter. ok is false when the
// parameter is absent.
func queryInt(c *fiber.Ctx, name string) (n int, ok bool, err error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, false, nil
	}
	n, err = strconv.Atoi(raw)
	if err != nil {
		return 0, true, fiber.NewError(fiber.StatusUnprocessableEntity, name+" must be an integer")
	}
	return n, true, nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// queryDate parses an optional date query parameter. A bare calendar date
// used as an upper bound covers the whole day.
func queryDate(c *fiber.Ctx, name string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		t = t.UTC()
		if endOfDay && layout == "2006-01-02" {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return &t, nil
	}
	return nil, fiber.NewError(fiber.StatusUnprocessableEntity, name+" must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
}
