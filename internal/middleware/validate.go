package middleware

import (
	"errors"
	"fmt"
	"strings"

	"rigcheck/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// InputValidator validates and sanitizes user input
type InputValidator struct {
	validate *validator.Validate
}

// NewInputValidator creates a new input validator
func NewInputValidator() *InputValidator {
	return &InputValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// ValidateToken checks if token format is valid
func (iv *InputValidator) ValidateToken(token string) bool {
	// JWT tokens are in format: header.payload.signature
	if len(token) < 20 || len(token) > 4096 {
		return false
	}
	return strings.Count(token, ".") == 2
}

// ValidateRequest checks the three component names: present, not blank, bounded
func (iv *InputValidator) ValidateRequest(req models.AnalysisRequest) error {
	err := iv.validate.Struct(req)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	if err != nil {
		return err
	}
	for _, spec := range req.Specs() {
		if strings.TrimSpace(spec.RawName) == "" {
			return fmt.Errorf("%s is blank", spec.Kind.Lower())
		}
	}
	return nil
}

// ValidateBuildID checks that id is a UUID as issued by the build store
func (iv *InputValidator) ValidateBuildID(id string) bool {
	return uuid.Validate(id) == nil
}
