package try

// something have method `Fatal`.
//
// For example in standard libraries: *testing.T, log.Logger
type Fataler interface {
	Fatal(...any)
}

// Either holds a (T, error) pair returned from a fallible call.
//
// It is "ok" when the error is nil.
type Either[T any] struct {
	value T
	err   error
}

func To[T any](value T, err error) Either[T] {
	if err != nil {
		return Either[T]{err: err}
	}
	return Either[T]{value: value}
}

func (e Either[T]) Get() (T, error) {
	return e.value, e.err
}

// OrFatal returns the value when it is ok.
//
// Otherwise, it calls ftl.Fatal(err) and returns zero value.
// If ftl has "Helper()" method (like *testing.T), that is called before `Fatal`.
func (e Either[T]) OrFatal(ftl Fataler) T {
	if e.err == nil {
		return e.value
	}
	if hlp, ok := ftl.(interface{ Helper() }); ok {
		hlp.Helper()
	}
	ftl.Fatal(e.err)
	return *new(T)
}

func (e Either[T]) OrDefault(d T) T {
	if e.err != nil {
		return d
	}
	return e.value
}

// Map converts the value if the Either is ok.
func Map[T, R any](e Either[T], mapper func(T) (R, error)) Either[R] {
	if e.err != nil {
		return Either[R]{err: e.err}
	}
	return To(mapper(e.value))
}
