// Package validation provides a model capability that checks record properties against
// go-playground/validator tag rules declared on the schema.
package validation

import (
	"fmt"

	"composer-core/domain/model"
	pkgerrors "composer-core/pkg/errors"

	"github.com/go-playground/validator/v10"
)

// RulesValidator validates every property that declares Rules. Collection rules apply to
// the number of children (e.g. "min=1"); children are validated by their own type and
// reported under "property[index].field".
type RulesValidator struct {
	validate *validator.Validate
}

// NewRulesValidator creates a rules validator.
func NewRulesValidator() *RulesValidator {
	return &RulesValidator{validate: validator.New()}
}

// CapabilityName implements model.Capability.
func (v *RulesValidator) CapabilityName() string { return "rules" }

// CheckSchema rejects rule strings the validator cannot parse.
func (v *RulesValidator) CheckSchema(typeName string, s *model.Schema) error {
	var err error
	s.ForEachProperty(func(name string, def model.PropertyDefinition) {
		if err != nil || def.Rules == "" {
			return
		}
		if parseErr := v.tryRules(probeFor(def), def.Rules); parseErr != nil {
			err = pkgerrors.NewSchemaError("%s.%s has invalid rules %q: %v", typeName, name, def.Rules, parseErr)
		}
	})
	return err
}

// tryRules runs the rules once against a probe value. The validator panics on unknown tags.
func (v *RulesValidator) tryRules(probe any, rules string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%v", p)
		}
	}()
	_ = v.validate.Var(probe, rules)
	return nil
}

// probeFor returns a zero value shaped like the property's values.
func probeFor(def model.PropertyDefinition) any {
	if def.Collection {
		return 0
	}
	switch def.Type {
	case model.TypeInteger:
		return 0
	case model.TypeNumber:
		return 0.0
	case model.TypeBoolean:
		return false
	case model.TypeList:
		return []any{}
	case model.TypeObject:
		return map[string]any{}
	}
	return ""
}

// Validate implements model.Validator.
func (v *RulesValidator) Validate(r *model.Record) model.ValidationResult {
	errs := pkgerrors.NewValidationErrors()

	r.Type().ForEachProperty(func(name string, def model.PropertyDefinition) {
		if def.Collection {
			v.validateCollection(r, name, def, errs)
			return
		}
		if def.Rules == "" {
			return
		}
		value, _ := r.Get(name)
		v.check(name, value, def.Rules, errs)
	})

	if errs.HasErrors() {
		return model.ValidationResult{Valid: false, Errors: errs.Errors}
	}
	return model.Valid()
}

func (v *RulesValidator) validateCollection(r *model.Record, name string, def model.PropertyDefinition, errs *pkgerrors.ValidationErrors) {
	c, err := r.Collection(name)
	if err != nil {
		errs.Add(name, "collection", err.Error())
		return
	}
	if def.Rules != "" {
		v.check(name, c.Len(), def.Rules, errs)
	}
	for i, child := range c.All() {
		result := child.Validate()
		if result.Valid {
			continue
		}
		nested := &pkgerrors.ValidationErrors{Errors: result.Errors}
		errs.Merge(fmt.Sprintf("%s[%d]", name, i), nested)
	}
}

func (v *RulesValidator) check(field string, value any, rules string, errs *pkgerrors.ValidationErrors) {
	err := v.validate.Var(value, rules)
	if err == nil {
		return
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Add(field, "invalid", err.Error())
		return
	}
	for _, e := range validationErrors {
		errs.Add(field, e.Tag(), formatFieldError(field, e))
	}
}

// formatFieldError formats a single field validation error
func formatFieldError(field string, e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "len":
		return fmt.Sprintf("%s must have length %s", field, e.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, e.Tag())
	}
}
