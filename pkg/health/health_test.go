package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string { return s.name }
func (s stubChecker) Check(ctx context.Context) error { return s.err }

func TestCheckerRegistry(t *testing.T) {
	tests := []struct {
		name     string
		required []stubChecker
		optional []stubChecker
		want     Status
	}{
		{
			name: "no checkers",
			want: StatusHealthy,
		},
		{
			name:     "all healthy",
			required: []stubChecker{{name: "storage"}},
			optional: []stubChecker{{name: "mongodb"}},
			want:     StatusHealthy,
		},
		{
			name:     "optional failure degrades",
			required: []stubChecker{{name: "storage"}},
			optional: []stubChecker{{name: "mongodb", err: errors.New("connection refused")}},
			want:     StatusDegraded,
		},
		{
			name:     "required failure wins",
			required: []stubChecker{{name: "storage", err: errors.New("read-only file system")}},
			optional: []stubChecker{{name: "mongodb", err: errors.New("connection refused")}},
			want:     StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewCheckerRegistry()
			for _, c := range tt.required {
				r.Register(c)
			}
			for _, c := range tt.optional {
				r.RegisterOptional(c)
			}

			h := r.Check(context.Background())
			assert.Equal(t, tt.want, h.Status)
			assert.Len(t, h.Checks, len(tt.required)+len(tt.optional))
		})
	}
}

func TestCheckerRegistry_ResultMessages(t *testing.T) {
	r := NewCheckerRegistry()
	r.RegisterOptional(stubChecker{name: "kafka", err: errors.New("dial tcp: refused")})

	h := r.Check(context.Background())
	assert.Equal(t, StatusDegraded, h.Checks["kafka"].Status)
	assert.Equal(t, "dial tcp: refused", h.Checks["kafka"].Message)
}

func TestKafkaChecker_NoBrokers(t *testing.T) {
	err := NewKafkaChecker(nil).Check(context.Background())
	assert.EqualError(t, err, "no kafka brokers configured")
}
