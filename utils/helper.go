package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hiflogistics/freight_backend/config"
	"github.com/ttacon/libphonenumber"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err
	}
	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}
	return nil
}

// NormalizePhoneNumber validates a phone number and returns it in E.164 form.
// Empty input stays empty.
func NormalizePhoneNumber(phoneNumber string) (string, error) {
	phoneNumber = strings.TrimSpace(phoneNumber)
	if phoneNumber == "" {
		return "", nil
	}
	region := config.PhoneRegion()
	if err := ValidatePhoneNumber(phoneNumber, region); err != nil {
		return "", err
	}
	p, _ := libphonenumber.Parse(phoneNumber, region)
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

// ValidateStruct runs `validate` tags and converts failures into a ValidationError.
func ValidateStruct(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	return &ValidationError{Fields: ProcessValidationErrors(ves)}
}

func ProcessValidationErrors(err error) map[string]string {
	errorResponse := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errorResponse
	}
	for _, ve := range validationErrors {
		if ve.Param() != "" {
			errorResponse[ve.Field()] = ve.Tag() + "=" + ve.Param()
		} else {
			errorResponse[ve.Field()] = ve.Tag()
		}
	}
	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

// NewToken returns an opaque token for share and onboarding links.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// returns slice removing duplicate elements
func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

// safely dereference pointer of type T, nil pointer return zero value or optional default
func DereferencePtr[T any](ptr *T, defaults ...T) T {
	var defaultValue T
	if len(defaults) > 0 {
		defaultValue = defaults[0]
	}
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

// MonthStart truncates t to the first instant of its month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// LastMonthsStart returns the start of the month n-1 months before now,
// so that the window covers n calendar months including the current one.
func LastMonthsStart(now time.Time, months int) time.Time {
	if months <= 0 {
		months = 1
	}
	return MonthStart(now).AddDate(0, -(months - 1), 0)
}

func LocalNow() time.Time {
	loc, err := time.LoadLocation(config.Timezone())
	if err != nil {
		return time.Now()
	}
	return time.Now().In(loc)
}

// ObtainLock takes a best-effort redis lock. Without redis (or when the lock is
// busy past the retry window) it returns a no-op release and the caller proceeds;
// uniqueness is still enforced by the database.
func ObtainLock(ctx context.Context, key string, ttl time.Duration, moduleName string, functionName string) func() {
	noop := func() {}
	locker := config.GetRedisLock()
	if locker == nil {
		return noop
	}
	logger := config.GetLogger()
	lock, err := locker.Obtain(ctx, "lock:"+key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 40),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		config.LogError(logger, moduleName, functionName, "could not obtain lock", key, err)
		return noop
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "error obtaining lock", key, err)
		return noop
	}
	return func() {
		_ = lock.Release(ctx)
	}
}
