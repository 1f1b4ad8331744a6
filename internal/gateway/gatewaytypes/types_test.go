package gatewaytypes

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskLevel_String(t *testing.T) {
	assert.Equal(t, "safe", RiskLevelSafe.String())
	assert.Equal(t, "moderate", RiskLevelModerate.String())
	assert.Equal(t, "dangerous", RiskLevelDangerous.String())
	assert.Equal(t, "moderate", RiskLevel(42).String())
}

func TestParseRiskLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    RiskLevel
		wantErr bool
	}{
		{"safe", RiskLevelSafe, false},
		{"moderate", RiskLevelModerate, false},
		{"", RiskLevelModerate, false},
		{"dangerous", RiskLevelDangerous, false},
		{"critical", RiskLevelModerate, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRiskLevel(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRiskLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRiskLevel_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Risk RiskLevel `json:"risk"`
	}{RiskLevelDangerous})
	require.NoError(t, err)
	assert.JSONEq(t, `{"risk":"dangerous"}`, string(data))

	var decoded struct {
		Risk RiskLevel `json:"risk"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"risk":"safe"}`), &decoded))
	assert.Equal(t, RiskLevelSafe, decoded.Risk)

	assert.Error(t, json.Unmarshal([]byte(`{"risk":"bogus"}`), &decoded))
}

func TestFailed(t *testing.T) {
	cause := errors.New("boom")
	result := Failed(CategoryExecutionFault, cause)

	assert.False(t, result.Success)
	assert.Equal(t, "boom", result.Stderr)
	assert.Nil(t, result.ExitCode)
	assert.Equal(t, CategoryExecutionFault, result.Category)
	assert.ErrorIs(t, result.Err, cause)
}

func TestVerdictConstructors(t *testing.T) {
	assert.Equal(t, SafetyVerdict{Allowed: true}, Allow())

	v := Block(HazardForkBomb, "fork bomb")
	assert.False(t, v.Allowed)
	assert.Equal(t, HazardForkBomb, v.Category)
	assert.Equal(t, "fork bomb", v.Reason)
}
