package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"useraccounts/internal/apperror"
	"useraccounts/internal/middleware"
	"useraccounts/internal/repository"
	"useraccounts/internal/service"
)

var errorMessages = []struct {
	err     error
	status  int
	message string
}{
	{service.ErrEmailExists, http.StatusBadRequest, "Email already exists"},
	{service.ErrMissingCredentials, http.StatusBadRequest, "please enter email and password"},
	{service.ErrInvalidCredentials, http.StatusBadRequest, "invalid email or password"},
	{service.ErrPasswordMismatch, http.StatusBadRequest, "Password does not match"},
	{service.ErrMissingPasswords, http.StatusBadRequest, "please enter old and new password"},
	{service.ErrNoPasswordOnAccount, http.StatusBadRequest, "invalid user"},
	{service.ErrInvalidOldPassword, http.StatusBadRequest, "invalid old password"},
	{service.ErrInvalidRole, http.StatusBadRequest, "invalid role"},
	{service.ErrEmptyAvatar, http.StatusBadRequest, "please upload an avatar"},
	{service.ErrAvatarTooLarge, http.StatusBadRequest, "avatar is too large"},
	{service.ErrAvatarType, http.StatusBadRequest, "avatar must be a jpeg, png, gif, webp or svg image"},
	{service.ErrAvatarMismatch, http.StatusBadRequest, "avatar content does not match its declared type"},
	{service.ErrStorageDisabled, http.StatusServiceUnavailable, "avatar storage is not configured"},
	{repository.ErrUserNotFound, http.StatusNotFound, "user not found"},
}

// fail maps err to its client-facing form and hands it to the error responder.
func (h HandlerSet) fail(c *gin.Context, err error) {
	middleware.Abort(c, toAppError(err))
}

func toAppError(err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	for _, m := range errorMessages {
		if errors.Is(err, m.err) {
			return apperror.Wrap(err, m.status, m.message)
		}
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return apperror.Wrap(err, http.StatusBadRequest, validationMessage(validationErrs))
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return apperror.Wrap(err, http.StatusBadRequest, "invalid request body")
	}

	return err
}

func validationMessage(errs validator.ValidationErrors) string {
	messages := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", fe.Field()))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email address", fe.Field()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(messages, ", ")
}

var tagNameOnce sync.Once

// registerValidatorTagNames makes validation errors report JSON field names.
func registerValidatorTagNames() {
	tagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}
