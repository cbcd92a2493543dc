package validator

import (
	"net/mail"
	"strings"
	"time"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

func ValidateRegister(email, password, fullName, dateOfBirth string) ValidationErrors {
	errs := make(ValidationErrors)

	validateEmail(email, errs)

	if len(password) < 6 {
		errs.Add("password", "Password must be at least 6 characters")
	}

	validateFullName(fullName, errs)

	if dateOfBirth != "" {
		validateDateOfBirth(dateOfBirth, errs)
	}

	return errs
}

func ValidateLogin(email, password string) ValidationErrors {
	errs := make(ValidationErrors)

	validateEmail(email, errs)

	if password == "" {
		errs.Add("password", "Password is required")
	}

	return errs
}

// ValidateProfileUpdate checks only the fields present in a partial update.
func ValidateProfileUpdate(fullName, bio, dateOfBirth *string) ValidationErrors {
	errs := make(ValidationErrors)

	if fullName != nil {
		validateFullName(*fullName, errs)
	}

	if bio != nil && len(*bio) > 500 {
		errs.Add("bio", "Bio must be at most 500 characters")
	}

	if dateOfBirth != nil {
		validateDateOfBirth(*dateOfBirth, errs)
	}

	return errs
}

func validateEmail(email string, errs ValidationErrors) {
	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "Email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.Add("email", "Invalid email address")
	}
}

func validateFullName(fullName string, errs ValidationErrors) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		errs.Add("fullName", "Full name is required")
	} else if len(fullName) < 2 {
		errs.Add("fullName", "Full name must be at least 2 characters")
	} else if len(fullName) > 100 {
		errs.Add("fullName", "Full name is too long")
	}
}

func validateDateOfBirth(dateOfBirth string, errs ValidationErrors) {
	if _, err := time.Parse("2006-01-02", dateOfBirth); err != nil {
		errs.Add("dateOfBirth", "Date of birth must be in YYYY-MM-DD format")
	}
}
