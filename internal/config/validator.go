package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"

	deperrors "github.com/alexisbeaulieu97/deployerra/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	shellWordPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
)

// validatorInstance configures and returns the shared validator instance used across the config package.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})

		_ = v.RegisterValidation("abs_path", func(fl validator.FieldLevel) bool {
			path := fl.Field().String()
			return filepath.IsAbs(path) && !strings.Contains(path, "\x00")
		})

		// Runtime names are spliced into shell command lines.
		_ = v.RegisterValidation("shell_word", func(fl validator.FieldLevel) bool {
			return shellWordPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("compose_version", func(fl validator.FieldLevel) bool {
			version := fl.Field().String()
			if strings.EqualFold(version, LatestComposeVersion) {
				return true
			}
			_, err := semver.NewVersion(version)
			return err == nil
		})

		_ = v.RegisterValidation("url_template", func(fl validator.FieldLevel) bool {
			template := fl.Field().String()
			if !strings.Contains(template, "{arch}") {
				return false
			}
			parsed, err := url.Parse(strings.NewReplacer("{release}", "r", "{version}", "v", "{arch}", "a").Replace(template))
			if err != nil {
				return false
			}
			scheme := strings.ToLower(parsed.Scheme)
			return (scheme == "https" || scheme == "http") && parsed.Host != ""
		})

		validateInst = v
	})

	return validateInst
}

// ValidateConfig performs schema validation on the profile.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return deperrors.NewValidationError("config", "configuration is nil", nil)
	}

	if err := validatorInstance().Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	for family, cmds := range cfg.Platforms {
		if family != "amazon" && len(cmds.Variants) > 0 {
			return deperrors.NewValidationError(fmt.Sprintf("platforms.%s.variants", family), "release variants are only supported for the amazon family", nil)
		}
	}

	return nil
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		field := yamlishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return deperrors.NewValidationError(field, msg, err)
	}

	return deperrors.NewValidationError("config", err.Error(), err)
}

func yamlishFieldName(fe validator.FieldError) string {
	parts := strings.Split(fe.Namespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}
