package api

import "fmt"

type paramError struct {
	name  string
	value string
}

func (e paramError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.name, e.value)
}

func errInvalidParam(name, value string) error {
	return paramError{name: name, value: value}
}
