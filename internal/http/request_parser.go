package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

var errNotInteger = errors.New("not an integer")

// requestBodyParser handles both JSON and form-encoded request bodies.
// The body is read once and queried by field name afterwards.
type requestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	err      error
}

func parseRequestBody(r *http.Request) *requestBodyParser {
	p := &requestBodyParser{}

	p.body, p.err = io.ReadAll(r.Body)
	if p.err != nil {
		return p
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return p
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		p.err = json.Unmarshal(p.body, &p.jsonData)
		return p
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p
}

// Get returns a trimmed string value from the parsed data, empty when
// the field is absent.
func (p *requestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// GetInt64 returns an integer field. Fractional JSON numbers and
// non-numeric strings report errNotInteger; absent fields report ok=false.
func (p *requestBodyParser) GetInt64(key string) (int64, bool, error) {
	if p.jsonData != nil {
		val, present := p.jsonData[key]
		if !present || val == nil {
			return 0, false, nil
		}
		switch v := val.(type) {
		case float64:
			n := int64(v)
			if float64(n) != v {
				return 0, true, errNotInteger
			}
			return n, true, nil
		case string:
			return parseInt64(v)
		default:
			return 0, true, errNotInteger
		}
	}

	if p.formData == nil {
		return 0, false, nil
	}
	raw := strings.TrimSpace(p.formData.Get(key))
	if raw == "" {
		return 0, false, nil
	}
	return parseInt64(raw)
}

func parseInt64(raw string) (int64, bool, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, true, errNotInteger
	}
	return n, true, nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
