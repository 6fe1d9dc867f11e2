package controllers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// looseString accepts a JSON string and treats any other value as empty.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		*s = ""
		return nil
	}
	*s = looseString(v)
	return nil
}

// looseStrings accepts a JSON array of any scalars, stringifying each item. Anything
// other than an array is treated as empty.
type looseStrings []string

func (l *looseStrings) UnmarshalJSON(data []byte) error {
	var items []interface{}
	if err := json.Unmarshal(data, &items); err != nil {
		*l = nil
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case nil:
			continue
		case string:
			out = append(out, v)
		case float64:
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	*l = out
	return nil
}

// looseInt accepts a JSON number or a string with a leading integer. Anything else is
// zero, which callers treat as "use the default".
type looseInt int

func (i *looseInt) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*i = looseInt(int(n))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*i = looseInt(leadingInt(s))
		return nil
	}
	*i = 0
	return nil
}

// leadingInt parses the integer prefix of s, returning 0 when there is none.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		ch := s[end]
		if ch >= '0' && ch <= '9' || (end == 0 && (ch == '-' || ch == '+')) {
			end++
			continue
		}
		break
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// splitCSV splits a comma separated form value, trimming entries and dropping empty ones.
func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type analyzeRequest struct {
	Image looseString `json:"image"`
}

type fetchImageRequest struct {
	URL looseString `json:"url" validate:"required"`
}

type searchRequest struct {
	Keywords looseStrings `json:"keywords" validate:"max=50"`
	Name     looseString  `json:"name"`
	Category looseString  `json:"category"`
	Brand    looseString  `json:"brand"`
	Colors   looseStrings `json:"colors" validate:"max=20"`
	Image    looseString  `json:"image"`
	Limit    looseInt     `json:"limit"`
}
