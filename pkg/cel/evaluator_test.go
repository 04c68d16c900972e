package cel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plategate/pkg/models"
)

func testEvent() models.StructuredEvent {
	return models.StructuredEvent{
		IPAddress:    "192.168.1.64",
		DateTime:     "2024-03-18T09:41:07+08:00",
		EventType:    "ANPR",
		LicensePlate: "AB1234C",
		VehicleType:  "car",
		VehicleColor: "blue",
		VehicleSpeed: "42",
	}
}

func TestNewEvaluator(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)
	assert.NotNil(t, eval)
}

func TestValidateExpression(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name      string
		expr      string
		wantError bool
	}{
		{name: "field comparison", expr: `event.event_type == "ANPR"`},
		{name: "string function", expr: `event.license_plate.startsWith("AB")`},
		{name: "invalid syntax", expr: `event.event_type ==`, wantError: true},
		{name: "undefined variable", expr: `payload.status == "x"`, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := eval.ValidateExpression(tt.expr)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCompileFilter_RequiresBool(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	_, err = eval.CompileFilter(`event.license_plate`)
	assert.Error(t, err)

	f, err := eval.CompileFilter(`event.vehicle_type == "car"`)
	require.NoError(t, err)
	assert.Equal(t, `event.vehicle_type == "car"`, f.Expression())
}

func TestFilter_Match(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{name: "matches event type", expr: `event.event_type == "ANPR"`, want: true},
		{name: "plate prefix", expr: `event.license_plate.startsWith("ZZ")`, want: false},
		{name: "numeric speed", expr: `int(event.vehicle_speed) > 30`, want: true},
		{name: "membership", expr: `event.vehicle_color in ["red", "blue"]`, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := eval.CompileFilter(tt.expr)
			require.NoError(t, err)

			got, err := f.Match(context.Background(), testEvent())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilter_MatchRuntimeError(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	f, err := eval.CompileFilter(`int(event.vehicle_type) > 1`)
	require.NoError(t, err)

	_, err = f.Match(context.Background(), testEvent())
	assert.Error(t, err)
}
