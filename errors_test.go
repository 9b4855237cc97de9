package cvssmerge

import (
	"errors"
	"fmt"
	"testing"
)

func ExampleError() {
	fmt.Println(&Error{
		Inner:   nil,
		Kind:    ErrInternal,
		Message: "test",
		Op:      "ExampleError",
	})

	inner := errors.New(`unknown prefix "CVSS:9.9"`)
	fmt.Println(&Error{
		Inner:   inner,
		Kind:    ErrMalformed,
		Message: "unable to parse vector",
		Op:      "cvss.Parse",
	})
	err := &Error{
		Inner: &Error{
			Inner:   inner,
			Kind:    ErrMalformed,
			Message: "unable to parse vector",
			Op:      "cvss.Parse",
		},
		Kind: ErrInvalid,
	}
	fmt.Println(err)
	fmt.Println(fmt.Errorf("reconcile: oops: %w", &Error{
		Kind:    ErrPrecondition,
		Message: "selector vetoed result",
		Op:      "Select",
	}))

	// Output:
	// ExampleError [internal]: test
	// cvss.Parse [malformed]: unable to parse vector: unknown prefix "CVSS:9.9"
	// cvss.Parse [malformed]: unable to parse vector: unknown prefix "CVSS:9.9"
	// reconcile: oops: Select [precondition]: selector vetoed result
}

func TestErrorKind(t *testing.T) {
	tt := []struct {
		Name string
		Err  error
		Kind ErrorKind
		Not  []ErrorKind
	}{
		{
			Name: "Config",
			Err:  &Error{Kind: ErrConfig, Op: "config.Compile"},
			Kind: ErrConfig,
			Not:  []ErrorKind{ErrInvalid, ErrMalformed},
		},
		{
			Name: "Wrapped",
			Err:  fmt.Errorf("outer: %w", &Error{Kind: ErrMalformed, Message: "bad"}),
			Kind: ErrMalformed,
			Not:  []ErrorKind{ErrConfig, ErrPrecondition},
		},
		{
			Name: "Nested",
			Err: &Error{
				Kind:  ErrPrecondition,
				Inner: &Error{Kind: ErrMalformed},
			},
			Kind: ErrPrecondition,
			Not:  []ErrorKind{ErrConfig},
		},
	}
	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			t.Log(tc.Err)
			if !errors.Is(tc.Err, tc.Kind) {
				t.Errorf("errors.Is(%v): got: false, want: true", tc.Kind)
			}
			for _, k := range tc.Not {
				if errors.Is(tc.Err, k) {
					t.Errorf("errors.Is(%v): got: true, want: false", k)
				}
			}
			var e *Error
			if !errors.As(tc.Err, &e) {
				t.Error("errors.As: got: false, want: true")
			}
		})
	}
}
