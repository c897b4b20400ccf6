package validator

import (
	"reflect"
	"strings"
)

// jsonTagName reports fields by their json name so errors match the request payload
func jsonTagName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	default:
		return name
	}
}
