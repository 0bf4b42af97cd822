package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlannerLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)

	l := NewPlannerLogger()
	l.StartPlan("plan-1", "greedy", 12, 3)
	l.PlanComplete("plan-1", 25*time.Millisecond, 4, 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "planner", first["component"])
	assert.Equal(t, "plan-1", first["plan_id"])
	assert.Equal(t, "greedy", first["strategy"])
	assert.EqualValues(t, 12, first["scenes"])
}

func TestWithContextAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-42")
	WithContext(ctx).Info().Msg("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "req-42", entry["request_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "debug", parseLevel("debug").String())
	assert.Equal(t, "warn", parseLevel("warning").String())
	assert.Equal(t, "info", parseLevel("bogus").String())
}
