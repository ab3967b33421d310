package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gestock/backend/internal/domain/inventory"
	"github.com/gestock/backend/internal/domain/trade"
	"github.com/gestock/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator configures the gin validator: JSON field names in errors
// and the movement_type / payment_method tags used by the request DTOs.
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	if err := v.RegisterValidation("movement_type", validateMovementType); err != nil {
		return err
	}
	return v.RegisterValidation("payment_method", validatePaymentMethod)
}

func validateMovementType(fl validator.FieldLevel) bool {
	return inventory.MovementType(fl.Field().String()).IsValid()
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	return trade.PaymentMethod(fl.Field().String()).IsValid()
}

// FormatValidationErrors formats validation errors into a standard response
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: getValidationMessage(e),
			})
		}
		return dto.NewValidationErrorResponse("Requête invalide", requestID, details)
	}

	// malformed JSON, wrong field types
	return dto.NewErrorResponseWithRequestID(dto.ErrCodeInvalidJSON, "Corps de requête invalide: "+err.Error(), requestID)
}

// HandleValidationError returns a validation error response
func HandleValidationError(c *gin.Context, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		abortPayloadTooLarge(c)
		return
	}
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

// getValidationMessage returns a human-readable validation message
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "Ce champ est obligatoire"
	case "min":
		if e.Type().Kind() == reflect.String {
			return "Doit contenir au moins " + e.Param() + " caractères"
		}
		if e.Type().Kind() == reflect.Slice {
			return "Doit contenir au moins " + e.Param() + " élément(s)"
		}
		return "Doit être supérieur ou égal à " + e.Param()
	case "max":
		if e.Type().Kind() == reflect.String {
			return "Doit contenir au plus " + e.Param() + " caractères"
		}
		return "Doit être inférieur ou égal à " + e.Param()
	case "uuid":
		return "Identifiant invalide"
	case "oneof":
		return "Valeurs acceptées : " + e.Param()
	case "url":
		return "URL invalide"
	case "movement_type":
		return "Type de mouvement inconnu (IN, OUT, ADJUSTMENT)"
	case "payment_method":
		return "Moyen de paiement non supporté"
	default:
		return "Valeur invalide"
	}
}
