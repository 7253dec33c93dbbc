package utils

import (
	"fmt"
	"strings"

	"github.com/orochaa/access-logger/model"
)

// FieldError describes one invalid field of a request body.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// FormatFieldErrors renders a field-error list as one message string.
func FormatFieldErrors(errs []FieldError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// ValidateLogAccessRequest checks an ingestion request: appName must be a
// non-empty string, and when metadata is present its shape must be complete.
// An empty result means the request is valid.
func ValidateLogAccessRequest(appName string, meta *model.ClientMetadata) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(appName) == "" {
		errs = append(errs, FieldError{Field: "appName", Reason: "is required"})
	}

	if meta != nil {
		errs = append(errs, ValidateClientMetadata(meta)...)
	}

	return errs
}

// ValidateClientMetadata checks every required sub-field of a metadata
// object. The object as a whole is optional (legacy records have none), but
// a present object must be fully formed so reports never mix half-described
// clients with described ones.
func ValidateClientMetadata(meta *model.ClientMetadata) []FieldError {
	var errs []FieldError

	required := []struct {
		field string
		value string
	}{
		{"meta.browser.name", meta.Browser.Name},
		{"meta.browser.version", meta.Browser.Version},
		{"meta.os.name", meta.OS.Name},
		{"meta.os.version", meta.OS.Version},
		{"meta.device.type", meta.Device.Type},
		{"meta.device.model", meta.Device.Model},
		{"meta.platform", meta.Platform},
		{"meta.userAgent", meta.UserAgent},
		{"meta.locale", meta.Locale},
		{"meta.timezone", meta.Timezone},
		{"meta.pageUrl", meta.PageURL},
		{"meta.clientTime", meta.ClientTime},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, FieldError{Field: r.field, Reason: "is required"})
		}
	}

	if meta.Screen.W <= 0 {
		errs = append(errs, FieldError{Field: "meta.screen.w", Reason: "must be a positive number"})
	}
	if meta.Screen.H <= 0 {
		errs = append(errs, FieldError{Field: "meta.screen.h", Reason: "must be a positive number"})
	}
	if meta.Screen.DPR <= 0 {
		errs = append(errs, FieldError{Field: "meta.screen.dpr", Reason: "must be a positive number"})
	}

	return errs
}

// ValidateContactRequest checks a contact-form submission. Fields are
// checked in a fixed order so the first error is stable.
func ValidateContactRequest(msg model.ContactMessage) []FieldError {
	var errs []FieldError

	checks := []struct {
		field string
		value string
	}{
		{"name", msg.Name},
		{"email", msg.Email},
		{"subject", msg.Subject},
		{"message", msg.Message},
	}
	for _, c := range checks {
		if strings.TrimSpace(c.value) == "" {
			errs = append(errs, FieldError{Field: c.field, Reason: "is required"})
		}
	}

	return errs
}
