package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	errs    []error
	tags    []map[string]string
	flushed bool
}

func (r *recorder) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
}
func (r *recorder) Recover()            {}
func (r *recorder) Flush(time.Duration) { r.flushed = true }

func TestCaptureException(t *testing.T) {
	rec := &recorder{}
	Init(rec)
	defer Init(nil)

	CaptureException(nil, nil)
	CaptureException(errors.New("boom"), map[string]string{"route": "/predict"})
	Flush(time.Second)

	assert.Len(t, rec.errs, 1)
	assert.Equal(t, "/predict", rec.tags[0]["route"])
	assert.True(t, rec.flushed)
}

func TestRecover_ReportsAndRepanics(t *testing.T) {
	rec := &recorder{}
	Init(rec)
	defer Init(nil)

	assert.PanicsWithValue(t, "worker died", func() {
		defer Recover()
		panic("worker died")
	})
	assert.Len(t, rec.errs, 1)
	assert.Equal(t, "panic: worker died", rec.errs[0].Error())
	assert.Equal(t, "panic", rec.tags[0]["kind"])
}

func TestInit_NilRestoresNop(t *testing.T) {
	Init(nil)
	assert.IsType(t, NopMonitor{}, get())
}
