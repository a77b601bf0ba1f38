package engine

import "errors"

// invalidShardError signals a shard descriptor that fails validation.
type invalidShardError struct{ err error }

func (e invalidShardError) Error() string { return "invalid shard: " + e.err.Error() }

func (e invalidShardError) Unwrap() error { return e.err }

// IsInvalidShard reports whether err was caused by a malformed shard.
func IsInvalidShard(err error) bool {
	var e invalidShardError
	return errors.As(err, &e)
}

// shapeMismatchError signals an input tensor whose rank does not fit the stage.
type shapeMismatchError struct{ msg string }

func (e shapeMismatchError) Error() string { return "shape mismatch: " + e.msg }

// ErrShapeMismatch constructs a shapeMismatchError.
func ErrShapeMismatch(msg string) error { return shapeMismatchError{msg: msg} }

// IsShapeMismatch reports whether err indicates an unusable input shape.
func IsShapeMismatch(err error) bool {
	var e shapeMismatchError
	return errors.As(err, &e)
}
