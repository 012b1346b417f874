package handlers

import (
	"encoding/json"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"couponhub/internal/apperrors"
	"couponhub/internal/assets"
)

// Multipart field names.
const (
	fieldLogo        = "logo"
	fieldImages      = "images"
	fieldClearImages = "clearImages"
)

// nullSentinel in a multipart field asks for the stored value to be removed
// (logo, discountedPrice).
const nullSentinel = "null"

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}

// multipartForm returns the parsed form, or nil for non-multipart requests.
func multipartForm(c *fiber.Ctx) (*multipart.Form, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.Validation("Invalid multipart form: %v", err)
	}
	return form, nil
}

// uploads wraps the files of field and checks them against policy.
func uploads(form *multipart.Form, field string, policy assets.Policy) ([]assets.Upload, error) {
	if form == nil {
		return nil, nil
	}
	headers := form.File[field]
	files := make([]assets.Upload, 0, len(headers))
	for _, fh := range headers {
		files = append(files, assets.FromFileHeader(fh))
	}
	if err := policy.CheckAll(files); err != nil {
		return nil, err
	}
	return files, nil
}

// singleUpload returns the only file of field, or nil when none was sent.
func singleUpload(form *multipart.Form, field string, policy assets.Policy) (*assets.Upload, error) {
	policy.MaxFiles = 1
	files, err := uploads(form, field, policy)
	if err != nil || len(files) == 0 {
		return nil, err
	}
	return &files[0], nil
}

// formString returns the value of key, or nil when the key is absent.
func formString(form *multipart.Form, key string) *string {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

func formFloat(form *multipart.Form, key string) (*float64, error) {
	s := formString(form, key)
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(*s), 64)
	if err != nil {
		return nil, apperrors.Validation("Field '%s' must be a number", key)
	}
	return &f, nil
}

func formInt(form *multipart.Form, key string) (*int, error) {
	s := formString(form, key)
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(*s))
	if err != nil {
		return nil, apperrors.Validation("Field '%s' must be an integer", key)
	}
	return &n, nil
}

func formBool(form *multipart.Form, key string) (*bool, error) {
	s := formString(form, key)
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(*s))
	if err != nil {
		return nil, apperrors.Validation("Field '%s' must be true or false", key)
	}
	return &b, nil
}

// decodeJSON decodes a JSON body into v. An empty body leaves v untouched.
func decodeJSON(c *fiber.Ctx, v any) error {
	body := c.Body()
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return apperrors.Validation("Invalid request body: %v", err)
	}
	return nil
}

// optionalField records whether a JSON key was present and whether it was
// null. UnmarshalJSON is invoked for null too because the field is not a
// pointer.
type optionalField struct {
	Set  bool
	Null bool
}

func (f *optionalField) UnmarshalJSON(data []byte) error {
	f.Set = true
	s := strings.TrimSpace(string(data))
	f.Null = s == "null" || s == `"null"`
	return nil
}

// optionalNumber is a nullable JSON number: absent, null or a value.
type optionalNumber struct {
	Null  bool
	Value *float64
}

func (n *optionalNumber) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		n.Null = true
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// flag accepts true, false, "true" and "false".
type flag bool

func (f *flag) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*f = false
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*f = flag(b)
	return nil
}
