// Package validation checks configuration and request input.
//
// Struct tag validation uses go-playground/validator; field names in error
// messages follow the struct's mapstructure (config key) tags:
//
//	type APIConfig struct {
//	    BaseURL string `mapstructure:"base_url" validate:"required,url"`
//	}
//	err := validation.Validate(cfg)
//
// Programmatic checks collect errors before failing:
//
//	v := validation.New()
//	v.Required("path", path)
//	err := v.Validate()
package validation
