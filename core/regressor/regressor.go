package regressor

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrInference wraps any failure reported by a regressor.
var ErrInference = errors.New("model inference failed")

// Regressor is a trained model mapping a feature vector to a price.
type Regressor interface {
	Predict(ctx context.Context, features []float64) (float64, error)
}

// Func adapts a function to the Regressor interface.
type Func func(ctx context.Context, features []float64) (float64, error)

// Predict calls f.
func (f Func) Predict(ctx context.Context, features []float64) (float64, error) {
	return f(ctx, features)
}

// Constant always predicts the same value.
type Constant float64

// Predict returns c.
func (c Constant) Predict(context.Context, []float64) (float64, error) { return float64(c), nil }

// InferenceError carries the cause of a failed prediction. It matches
// ErrInference with errors.Is.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string { return fmt.Sprintf("%v: %v", ErrInference, e.Err) }

func (e *InferenceError) Unwrap() error { return e.Err }

// Is reports whether target is ErrInference.
func (e *InferenceError) Is(target error) bool { return target == ErrInference }

// serialized guards a regressor that is not safe for concurrent calls.
type serialized struct {
	mu   sync.Mutex
	next Regressor
}

// Serialized returns a Regressor that lets one Predict call run at a time.
func Serialized(r Regressor) Regressor {
	return &serialized{next: r}
}

func (s *serialized) Predict(ctx context.Context, features []float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.next.Predict(ctx, features)
}

// Closer is implemented by regressors holding resources.
type Closer interface {
	Close() error
}

// Close closes r if it holds resources.
func Close(r Regressor) error {
	if s, ok := r.(*serialized); ok {
		r = s.next
	}
	if c, ok := r.(Closer); ok {
		return c.Close()
	}
	return nil
}
