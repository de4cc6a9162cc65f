package field

import "context"

// Values is the view of a record handed to field hooks. Value and SetValue
// read and write the stored value of a field by its canonical name,
// bypassing the set pipeline.
type Values interface {
	Value(name string) any
	SetValue(name string, v any)
}

// Validator rejects a value before it is assigned.
type Validator interface {
	Validate(ctx context.Context, rec Values, v any) error
}

// Scrubber returns a cleaned version of a value before it is assigned.
type Scrubber interface {
	Scrub(ctx context.Context, rec Values, v any) (any, error)
}

// GetHandler replaces the read of a field.
type GetHandler interface {
	Get(ctx context.Context, rec Values) (any, error)
}

// SetHandler replaces the whole assignment of a field. Built-in validation
// does not run when a set handler is present.
type SetHandler interface {
	Set(ctx context.Context, rec Values, v any) error
}

// The ValidatorFunc type is an adapter to allow the use of ordinary
// functions as Validator.
type ValidatorFunc func(context.Context, Values, any) error

// Validate calls f(ctx, rec, v).
func (f ValidatorFunc) Validate(ctx context.Context, rec Values, v any) error {
	return f(ctx, rec, v)
}

// The ScrubberFunc type is an adapter to allow the use of ordinary
// functions as Scrubber.
type ScrubberFunc func(context.Context, Values, any) (any, error)

// Scrub calls f(ctx, rec, v).
func (f ScrubberFunc) Scrub(ctx context.Context, rec Values, v any) (any, error) {
	return f(ctx, rec, v)
}

// The GetHandlerFunc type is an adapter to allow the use of ordinary
// functions as GetHandler.
type GetHandlerFunc func(context.Context, Values) (any, error)

// Get calls f(ctx, rec).
func (f GetHandlerFunc) Get(ctx context.Context, rec Values) (any, error) {
	return f(ctx, rec)
}

// The SetHandlerFunc type is an adapter to allow the use of ordinary
// functions as SetHandler.
type SetHandlerFunc func(context.Context, Values, any) error

// Set calls f(ctx, rec, v).
func (f SetHandlerFunc) Set(ctx context.Context, rec Values, v any) error {
	return f(ctx, rec, v)
}
