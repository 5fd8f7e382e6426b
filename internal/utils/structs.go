package utils

import (
	"reflect"
)

var ColumnTag = "db"

// StructTagValues lists the column names declared on input's exported
// fields in declaration order, skipping untagged fields and "-".
func StructTagValues(input any) []string {
	columns, _ := ColumnValues(input)
	return columns
}

// ColumnValues returns the tagged columns of input and the matching field
// values, index aligned, ready for an INSERT ... VALUES.
func ColumnValues(input any) ([]string, []any) {
	v := reflect.ValueOf(input)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		panic("input must be a pointer to a struct or a struct")
	}

	t := v.Type()
	columns := make([]string, 0, t.NumField())
	values := make([]any, 0, t.NumField())

	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get(ColumnTag)
		if tag == "" || tag == "-" {
			continue
		}

		columns = append(columns, tag)
		values = append(values, v.Field(i).Interface())
	}

	return columns, values
}
