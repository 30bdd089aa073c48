package common

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_JSON(t *testing.T) {
	ts := Timestamp(time.Date(2024, 6, 11, 10, 0, 0, 0, time.UTC))
	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2024-06-11T10:00:00Z"`, string(data))

	var back Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2024-06-11T12:00:00.5+02:00"`), &back))
	assert.Equal(t, time.Date(2024, 6, 11, 10, 0, 0, 5e8, time.UTC), back.Time())

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &back))
	assert.Error(t, json.Unmarshal([]byte(`12`), &back))
}

func TestNewRequestID(t *testing.T) {
	id := NewRequestID()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, NewRequestID())
}

func TestResponses(t *testing.T) {
	ok := NewSuccessResponse([]int{1, 2})
	assert.True(t, ok.Success)
	assert.Nil(t, ok.Error)
	assert.Equal(t, []int{1, 2}, ok.Data)

	failed := NewErrorResponse("NET_001", "component is not registered", "id=7")
	assert.False(t, failed.Success)
	require.NotNil(t, failed.Error)
	data, err := json.Marshal(failed)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"code":"NET_001"`)
	assert.NotContains(t, string(data), `"data"`)
}

func TestNewHealthReport(t *testing.T) {
	assert.True(t, NewHealthReport().Ready)
	assert.True(t, NewHealthReport(
		ComponentHealth{Name: "registry", Status: HealthUp},
		ComponentHealth{Name: "redis", Status: HealthDisabled},
	).Ready)
	assert.False(t, NewHealthReport(
		ComponentHealth{Name: "registry", Status: HealthUp},
		ComponentHealth{Name: "neo4j", Status: HealthDown},
	).Ready)
}
