package container

import (
	"fmt"
	"reflect"
)

// ReadAs reads name and asserts the stored value is a T
func ReadAs[T any](c *Container, name string) (T, error) {
	var zero T
	v, err := c.Read(name)
	if err != nil {
		return zero, err
	}
	return assertType[T](name, v)
}

func assertType[T any](name string, v any) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, &TypeMismatchError{
			Name: name,
			Want: reflect.TypeOf((*T)(nil)).Elem().String(),
			Got:  fmt.Sprintf("%T", v),
		}
	}
	return t, nil
}
