package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the model's field constraints and the cross-references
// between kinds. Every problem found is reported in one error.
func Validate(m *Model) error {
	var errs []string

	if err := validate.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs = append(errs, fmt.Sprintf("%s: failed '%s' constraint", fe.Namespace(), fe.Tag()))
		}
	}

	names := make(map[string]struct{}, len(m.Kinds))
	for _, k := range m.Kinds {
		if _, dup := names[k.Name]; dup {
			errs = append(errs, fmt.Sprintf("kind '%s' is defined more than once", k.Name))
		}
		names[k.Name] = struct{}{}
	}

	for _, k := range m.Kinds {
		for _, dep := range k.KindDependencies {
			if _, ok := names[dep]; !ok {
				errs = append(errs, fmt.Sprintf("kind '%s': unknown kind dependency '%s'", k.Name, dep))
			}
		}
		if k.PrimaryDependencyKind == "" {
			if k.JobTemplate != nil {
				errs = append(errs, fmt.Sprintf("kind '%s': job_template requires primary_dependency_kind", k.Name))
			}
			continue
		}
		if !slices.Contains(k.KindDependencies, k.PrimaryDependencyKind) {
			errs = append(errs, fmt.Sprintf("kind '%s': primary_dependency_kind '%s' must be listed in kind_dependencies", k.Name, k.PrimaryDependencyKind))
		}
		if k.JobTemplate == nil {
			errs = append(errs, fmt.Sprintf("kind '%s': primary_dependency_kind requires a job_template block", k.Name))
		}
		if len(k.Jobs) > 0 {
			errs = append(errs, fmt.Sprintf("kind '%s': job blocks cannot be combined with primary_dependency_kind", k.Name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
