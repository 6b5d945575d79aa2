package main

import (
	"errors"

	deperrors "github.com/alexisbeaulieu97/deployerra/pkg/errors"
)

const (
	exitOK             = 0
	exitFailure        = 1
	exitConfig         = 2
	exitClassification = 3
	exitPrivilege      = 4
)

var errNotProvisioned = errors.New("host is not fully provisioned")

func exitCode(err error) int {
	var (
		parseErr          *deperrors.ParseError
		validationErr     *deperrors.ValidationError
		classificationErr *deperrors.ClassificationError
		privilegeErr      *deperrors.PrivilegeError
	)

	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &privilegeErr):
		return exitPrivilege
	case errors.As(err, &classificationErr):
		return exitClassification
	case errors.As(err, &parseErr), errors.As(err, &validationErr):
		return exitConfig
	default:
		return exitFailure
	}
}
