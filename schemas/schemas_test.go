package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestParseEmbedded(t *testing.T) {
	audio, err := Parse(AudioAnalysis)
	require.NoError(t, err)
	assert.Equal(t, "object", audio.Type)
	assert.ElementsMatch(t, []string{"reason", "explanation", "advice"}, audio.Required)
	require.NotNil(t, audio.Properties["advice"].Items)
	assert.Equal(t, "string", audio.Properties["advice"].Items.Type)

	food, err := Parse(FoodAnalysis)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"itemName", "isSafe", "riskLevel", "summary", "details"}, food.Required)
	assert.Equal(t, "boolean", food.Properties["isSafe"].Type)
	assert.Contains(t, food.Properties["riskLevel"].Description, "Low, Medium, High")

	_, err = Parse("Missing")
	assert.Error(t, err)
}

func TestGenaiConversion(t *testing.T) {
	s, err := Genai(AudioAnalysis)
	require.NoError(t, err)
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, genai.TypeString, s.Properties["reason"].Type)
	assert.Equal(t, genai.TypeArray, s.Properties["advice"].Type)
	assert.Equal(t, genai.TypeString, s.Properties["advice"].Items.Type)
	assert.Len(t, s.Required, 3)
}

func TestValidate(t *testing.T) {
	valid := map[string]any{
		"reason":      "肚子餓",
		"explanation": "哭聲短促且有規律",
		"advice":      []any{"餵奶", "拍嗝"},
	}
	assert.NoError(t, Validate(AudioAnalysis, valid))

	missing := map[string]any{"reason": "肚子餓"}
	err := Validate(AudioAnalysis, missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "advice")

	wrongType := map[string]any{
		"itemName":  "蜂蜜",
		"isSafe":    "no",
		"riskLevel": "High",
		"summary":   "一歲以下不可食用",
		"details":   "可能含有肉毒桿菌孢子",
	}
	err = Validate(FoodAnalysis, wrongType)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "isSafe")
}
