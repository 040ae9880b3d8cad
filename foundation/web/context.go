package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/pkg/errors"
)

// Context carries the gin context plus a request scoped context.Context that
// middleware may enrich (for example with verified claims).
type Context struct {
	*gin.Context
	Ctx context.Context

	queryErrs []string
	paramErrs []string
}

func NewContext(gc *gin.Context) *Context {
	return &Context{Context: gc, Ctx: gc.Request.Context()}
}

// GetQueryFunc reads an optional query parameter. It returns a typed pointer
// (*int, *string, *bool) when the parameter is present and parses, nil
// otherwise. Parse failures are collected and reported by ValidQuery.
func (c *Context) GetQueryFunc(kind reflect.Kind, key string) interface{} {
	raw, ok := c.GetQuery(key)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return nil
	}

	switch kind {
	case reflect.Int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.queryErrs = append(c.queryErrs, fmt.Sprintf("invalid %s: %q", key, raw))
			return nil
		}
		return &v
	case reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.queryErrs = append(c.queryErrs, fmt.Sprintf("invalid %s: %q", key, raw))
			return nil
		}
		return &v
	case reflect.String:
		return &raw
	}

	c.queryErrs = append(c.queryErrs, fmt.Sprintf("unsupported query type for %s", key))
	return nil
}

// ValidQuery reports the query parameters GetQueryFunc failed to parse.
func (c *Context) ValidQuery() error {
	if len(c.queryErrs) == 0 {
		return nil
	}
	return NewRequestError(errors.New(strings.Join(c.queryErrs, "; ")), http.StatusBadRequest)
}

// GetParam reads a path parameter as int or string. It always returns a value
// of the requested kind; parse failures are reported by ValidParam.
func (c *Context) GetParam(kind reflect.Kind, key string) interface{} {
	raw := c.Param(key)

	switch kind {
	case reflect.Int:
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			c.paramErrs = append(c.paramErrs, fmt.Sprintf("invalid %s: %q", key, raw))
			return 0
		}
		return v
	default:
		if raw == "" {
			c.paramErrs = append(c.paramErrs, fmt.Sprintf("%s is required", key))
		}
		return raw
	}
}

func (c *Context) ValidParam() error {
	if len(c.paramErrs) == 0 {
		return nil
	}
	return NewRequestError(errors.New(strings.Join(c.paramErrs, "; ")), http.StatusBadRequest)
}

// BindFunc decodes the request body into data and checks that every listed
// field is set. Field names may be passed individually or comma separated.
func (c *Context) BindFunc(data interface{}, required ...string) error {
	b := binding.Default(c.Request.Method, c.ContentType())
	if c.ContentType() == "" {
		b = binding.JSON
	}

	if err := c.ShouldBindWith(data, b); err != nil {
		if !(errors.Is(err, io.EOF) && len(required) == 0) {
			return NewRequestError(bindError(err), http.StatusBadRequest)
		}
	}

	var missing []string
	for _, group := range required {
		for _, name := range strings.Split(group, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if label, ok := isMissing(data, name); ok {
				missing = append(missing, label+" is required")
			}
		}
	}

	if len(missing) > 0 {
		return NewRequestError(errors.New(strings.Join(missing, "; ")), http.StatusBadRequest)
	}
	return nil
}

// Respond writes data as JSON with the given status.
func (c *Context) Respond(data interface{}, status int) error {
	if status == http.StatusNoContent {
		c.Status(status)
		return nil
	}
	c.JSON(status, data)
	return nil
}

// RespondFile sends data as a downloadable attachment.
func (c *Context) RespondFile(contentType string, filename string, data []byte) error {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
	return nil
}

// RespondError renders err as {"status": false, "message": ...}. The error is
// also recorded on the gin context so request logging can report its cause.
func (c *Context) RespondError(err error) error {
	status, msg := resolve(err)
	_ = c.Context.Error(err)
	c.AbortWithStatusJSON(status, gin.H{
		"status":  false,
		"message": msg,
	})
	return nil
}

// isMissing reports whether the named struct field of data holds its zero
// value. The returned label is the field's json name when it has one.
func isMissing(data interface{}, name string) (string, bool) {
	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return name, true
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return name, false
	}

	sf, ok := v.Type().FieldByName(name)
	if !ok {
		return name, false
	}
	label := jsonName(sf)
	f := v.FieldByIndex(sf.Index)

	switch f.Kind() {
	case reflect.Ptr, reflect.Interface:
		if f.IsNil() {
			return label, true
		}
		if f.Elem().Kind() == reflect.String {
			return label, strings.TrimSpace(f.Elem().String()) == ""
		}
		return label, false
	case reflect.String:
		return label, strings.TrimSpace(f.String()) == ""
	}
	return label, f.IsZero()
}

func jsonName(sf reflect.StructField) string {
	tag := strings.Split(sf.Tag.Get("json"), ",")[0]
	if tag == "" || tag == "-" {
		return sf.Name
	}
	return tag
}
