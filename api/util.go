package api

import (
	"reflect"
)

// Scrub blanks out every string field tagged sensitive:"true" so secrets
// never leave the service in a response body. It walks nested structs.
func Scrub(v interface{}) {
	scrubValue(reflect.ValueOf(v))
}

func scrubValue(val reflect.Value) {
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return
	}

	t := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		switch field.Kind() {
		case reflect.Struct, reflect.Ptr:
			scrubValue(field)
		case reflect.String:
			if t.Field(i).Tag.Get("sensitive") == "true" && field.CanSet() {
				field.SetString("")
			}
		}
	}
}
