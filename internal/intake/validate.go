package intake

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/academia-artes/course-assistant/internal/model"
)

var (
	nationalIDPattern = regexp.MustCompile(`^[0-9kK.\-]+$`)
	emailPattern      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern      = regexp.MustCompile(`^\d{7,15}$`)
)

// FieldError reports a value rejected by a step validator.
type FieldError struct {
	Field string
	Value string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s", e.Field)
}

// ValidNationalID accepts digits, k/K, periods and hyphens only.
func ValidNationalID(s string) bool {
	return nationalIDPattern.MatchString(s)
}

// ValidEmail accepts a local@domain.tld shape without whitespace.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidPhone accepts 7 to 15 decimal digits with no separators.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// ParsePreference maps sí/si/no (any case) to a WhatsApp preference.
func ParsePreference(s string) (prefers bool, ok bool) {
	switch strings.ToLower(s) {
	case "sí", "si":
		return true, true
	case "no":
		return false, true
	default:
		return false, false
	}
}

// apply validates text for step and stores it on rec. It reports false
// without touching rec when the text is rejected.
func apply(rec *model.IntakeRecord, step model.IntakeStep, text string) bool {
	switch step {
	case model.StepName:
		if text == "" {
			return false
		}
		rec.Name = text
	case model.StepNationalID:
		if !ValidNationalID(text) {
			return false
		}
		rec.NationalID = text
	case model.StepEmail:
		if !ValidEmail(text) {
			return false
		}
		rec.Email = text
	case model.StepPhone:
		if !ValidPhone(text) {
			return false
		}
		rec.Phone = text
	case model.StepContactPreference:
		prefers, ok := ParsePreference(text)
		if !ok {
			return false
		}
		rec.PrefersWhatsApp = prefers
	case model.StepMessage:
		if text == "" {
			return false
		}
		rec.Message = text
	default:
		return false
	}
	return true
}

// ValidateContact checks a web contact form with the same rules as the
// guided flow and returns the equivalent completed record.
func ValidateContact(req *model.ContactRequest) (*model.IntakeRecord, error) {
	fields := []struct {
		name  string
		step  model.IntakeStep
		value string
	}{
		{"nombre", model.StepName, req.Nombre},
		{"rut", model.StepNationalID, req.Rut},
		{"correo", model.StepEmail, req.Correo},
		{"telefono", model.StepPhone, req.Telefono},
		{"preferencia", model.StepContactPreference, req.Preferencia},
		{"mensaje", model.StepMessage, req.Mensaje},
	}

	rec := &model.IntakeRecord{}
	for _, f := range fields {
		value := strings.TrimSpace(f.value)
		if !apply(rec, f.step, value) {
			return nil, &FieldError{Field: f.name, Value: value}
		}
	}
	rec.Step = model.StepComplete
	return rec, nil
}

// MissingContactFields lists the empty fields of a contact form in form order.
func MissingContactFields(req *model.ContactRequest) []string {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"nombre", req.Nombre},
		{"rut", req.Rut},
		{"correo", req.Correo},
		{"telefono", req.Telefono},
		{"preferencia", req.Preferencia},
		{"mensaje", req.Mensaje},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}
