package validation

import (
	"reflect"
	"strings"
)

// fieldName reports fields by their form, json or koanf name so messages
// match what the caller actually sent.
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"form", "json", "koanf"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}
