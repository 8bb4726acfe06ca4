package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/werdnum/telegram-bot-api-mock/internal/models"
)

const maxMultipartMemory = 32 << 20

// params is a decoded request body. Bot API callers may send JSON,
// url-encoded or multipart forms, or plain query strings; every handler reads
// its arguments through the same accessors regardless of the encoding.
type params struct {
	json  map[string]json.RawMessage
	form  url.Values
	files map[string][]*multipart.FileHeader
}

func isJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// parseParams decodes the body of r according to its content type
func parseParams(r *http.Request) (*params, error) {
	p := &params{form: r.URL.Query()}

	if isJSON(r) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		if len(bytes.TrimSpace(body)) == 0 {
			return p, nil
		}
		if err := json.Unmarshal(body, &p.json); err != nil {
			return nil, invalidJSON(err)
		}
		return p, nil
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, &requestError{status: http.StatusBadRequest, description: "Bad Request: invalid multipart body - " + err.Error()}
		}
		p.form = r.Form
		p.files = r.MultipartForm.File
		return p, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, &requestError{status: http.StatusBadRequest, description: "Bad Request: invalid form body - " + err.Error()}
	}
	p.form = r.Form
	return p, nil
}

// raw returns the JSON of key. Form values are returned verbatim, so a
// JSON-encoded form field decodes the same way as an embedded JSON value.
func (p *params) raw(key string) ([]byte, bool) {
	if v, ok := p.json[key]; ok && string(v) != "null" {
		return v, true
	}
	if vs, ok := p.form[key]; ok && len(vs) > 0 {
		return []byte(vs[0]), true
	}
	return nil, false
}

// text returns key as a string. JSON numbers and booleans are returned as written.
func (p *params) text(key string) (string, bool) {
	if v, ok := p.json[key]; ok && string(v) != "null" {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s, true
		}
		return string(v), true
	}
	if vs, ok := p.form[key]; ok && len(vs) > 0 {
		return vs[0], true
	}
	return "", false
}

func (p *params) file(key string) (*multipart.FileHeader, bool) {
	if fs := p.files[key]; len(fs) > 0 {
		return fs[0], true
	}
	return nil, false
}

// binder reads typed values out of params, collecting conversion failures
// per field so they surface as validation errors
type binder struct {
	p    *params
	errs validation.Errors
}

func newBinder(p *params) *binder {
	return &binder{p: p, errs: validation.Errors{}}
}

func (b *binder) fail(key string, err error) {
	if _, seen := b.errs[key]; !seen {
		b.errs[key] = err
	}
}

// str reads a string field. In a JSON body the value must be a JSON string;
// form values are strings already.
func (b *binder) str(key string) (string, bool) {
	if v, ok := b.p.json[key]; ok && string(v) != "null" {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			b.fail(key, validation.NewError("validation_is_string", "must be a string"))
			return "", false
		}
		return s, true
	}
	return b.p.text(key)
}

func (b *binder) String(key string) string {
	s, _ := b.str(key)
	return s
}

// OptString distinguishes an absent value from an empty one
func (b *binder) OptString(key string) *string {
	s, ok := b.str(key)
	if !ok {
		return nil
	}
	return &s
}

// Int64 accepts a JSON number or a decimal string, so chat_id may be sent either way
func (b *binder) Int64(key string) *int64 {
	s, ok := b.p.text(key)
	if !ok || strings.TrimSpace(s) == "" {
		return nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		b.fail(key, validation.NewError("validation_is_int", "must be a valid integer"))
		return nil
	}
	return &v
}

func (b *binder) Int(key string) int {
	if v := b.Int64(key); v != nil {
		return int(*v)
	}
	return 0
}

func (b *binder) Bool(key string) bool {
	s, ok := b.p.text(key)
	if !ok || s == "" {
		return false
	}
	v, err := strconv.ParseBool(strings.ToLower(s))
	if err != nil {
		b.fail(key, validation.NewError("validation_is_bool", "must be a valid boolean"))
		return false
	}
	return v
}

// Markup parses reply_markup. An undecodable value is treated as absent.
func (b *binder) Markup(key string) models.ReplyMarkup {
	data, ok := b.p.raw(key)
	if !ok {
		return models.ReplyMarkup{}
	}
	m, err := models.ParseReplyMarkup(data)
	if err != nil {
		return models.ReplyMarkup{}
	}
	return m
}

// JSON decodes key into v; form values carry the JSON as text
func (b *binder) JSON(key string, v interface{}) bool {
	data, ok := b.p.raw(key)
	if !ok {
		return false
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			data = []byte(s)
		}
	}
	if err := json.Unmarshal(data, v); err != nil {
		b.fail(key, validation.NewError("validation_is_json", "must be valid JSON"))
		return false
	}
	return true
}

func (b *binder) Entities(key string) []tgbotapi.MessageEntity {
	var entities []tgbotapi.MessageEntity
	b.JSON(key, &entities)
	return entities
}

// StringList accepts a JSON array (embedded or as text), a comma separated
// list, or a repeated form field
func (b *binder) StringList(key string) []string {
	data, ok := b.p.raw(key)
	if !ok {
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		return list
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		data = []byte(s)
		if err := json.Unmarshal(data, &list); err == nil {
			return list
		}
	}

	if vs := b.p.form[key]; len(vs) > 1 {
		return append([]string(nil), vs...)
	}

	for _, item := range strings.Split(string(data), ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

// User decodes a user object such as from_user
func (b *binder) User(key string) *models.User {
	var u models.User
	if !b.JSON(key, &u) {
		return nil
	}
	return &u
}

// Err returns the collected conversion errors
func (b *binder) Err() error {
	if len(b.errs) == 0 {
		return nil
	}
	return b.errs
}

// validatable is implemented by every bound request
type validatable interface {
	Validate() error
}

// check returns conversion errors first, then the request's own rules
func (b *binder) check(req validatable) error {
	if err := b.Err(); err != nil {
		return err
	}
	return req.Validate()
}
