package registry

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/hamed0406/botscope/internal/domain"
)

// Validate checks registration input in a fixed order: missing parameters
// first, then format. Duplicate checks need registry state and happen in
// Register.
func Validate(name, rawURL string) error {
	if err := (validation.Errors{
		"name": validation.Validate(name, validation.Required),
		"url":  validation.Validate(rawURL, validation.Required),
	}).Filter(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMissingParameter, err)
	}
	if err := (validation.Errors{
		"name": validation.Validate(name, validation.By(noWhitespace)),
		"url":  validation.Validate(rawURL, validation.By(absoluteHTTPURL)),
	}).Filter(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
	}
	return nil
}

func noWhitespace(value interface{}) error {
	s, _ := value.(string)
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return errors.New("must not contain whitespace")
	}
	return nil
}

func absoluteHTTPURL(value interface{}) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil {
		return errors.New("must be a valid URL")
	}
	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("must be an absolute http or https URL")
	}
	if u.Host == "" {
		return errors.New("must have a host")
	}
	return nil
}
