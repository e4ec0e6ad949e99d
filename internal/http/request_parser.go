// Package http provides the web front end: routes, handlers and rendering.
//
// This file implements utilities for parsing and validating HTTP request data.
// Forms reach the server either URL-encoded (plain forms, htmx defaults) or
// as JSON (htmx json-enc), so mutation handlers read them through
// RequestBodyParser.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"spendtrack/internal/core"
)

const maxFormBytes = 64 << 10

var errInvalidID = errors.New("invalid id")

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads the request body once, capped at maxFormBytes.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxFormBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		p.err = json.Unmarshal(p.body, &p.jsonData)
		return p.err
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a sanitized value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Secret returns a value without trimming, for passwords.
func (p *RequestBodyParser) Secret(key string) string {
	if p.jsonData != nil {
		s, _ := p.jsonData[key].(string)
		return s
	}
	return p.formData.Get(key)
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

// valueSource is anything a form field can be looked up in.
type valueSource interface {
	Get(key string) string
}

type queryValues url.Values

func (q queryValues) Get(key string) string {
	return sanitizeInput(url.Values(q).Get(key))
}

func parseExpenseInput(src valueSource) core.ExpenseInput {
	return core.ExpenseInput{
		Amount:      src.Get("amount"),
		Category:    src.Get("category"),
		Description: src.Get("description"),
		Date:        src.Get("date"),
	}
}

func parseCategoryInput(src valueSource) core.CategoryInput {
	return core.CategoryInput{Name: src.Get("name")}
}

func parseCredentials(p *RequestBodyParser) core.Credentials {
	return core.Credentials{
		Email:    p.Get("email"),
		Password: p.Secret("password"),
	}
}

func parseRegistration(p *RequestBodyParser) core.Registration {
	return core.Registration{
		Email:     p.Get("email"),
		Password1: p.Secret("password1"),
		Password2: p.Secret("password2"),
		FirstName: p.Get("first_name"),
		LastName:  p.Get("last_name"),
	}
}

// pathID reads the {id} wildcard of the matched route.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// confirmed reports whether a destructive request carries confirm=yes.
func confirmed(r *http.Request) bool {
	return r.URL.Query().Get("confirm") == "yes"
}
