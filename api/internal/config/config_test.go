package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "Menu", cfg.Conversation.Project)
	assert.Equal(t, "production", cfg.Conversation.Deployment)
	assert.Equal(t, "ml-IN-MidhunNeural", cfg.Speech.Voice)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, "https://api.cognitive.microsofttranslator.com", cfg.Translator.Endpoint)
}

func TestParseReadsServiceVariables(t *testing.T) {
	t.Setenv("AZURE_VISION_ENDPOINT", "https://vision.example.com/")
	t.Setenv("AZURE_VISION_KEY", "vision-key")
	t.Setenv("SPEECH_REGION", "westeurope")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "https://vision.example.com/", cfg.Vision.Endpoint)
	assert.Equal(t, "vision-key", cfg.Vision.Key)
	assert.NoError(t, cfg.Vision.Validate())
	assert.Equal(t, "westeurope", cfg.Speech.Region)
}

func TestValidateListsMissingVariables(t *testing.T) {
	err := Speech{Region: "westeurope"}.Validate()
	require.Error(t, err)

	var missing *MissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"SPEECH_KEY"}, missing.Vars)
	assert.Contains(t, err.Error(), "SPEECH_KEY")

	err = CustomVision{TrainingEndpoint: "x", TrainingKey: "y"}.Validate()
	require.True(t, errors.As(err, &missing))
	assert.Len(t, missing.Vars, 3)
	assert.NoError(t, CustomVision{TrainingEndpoint: "x", TrainingKey: "y"}.ValidateTraining())
}

func TestValidateTreatsBlankAsMissing(t *testing.T) {
	err := Translator{Endpoint: "https://t", Key: "  ", Region: "eu"}.Validate()
	var missing *MissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"AZURE_TRANSLATION_KEY"}, missing.Vars)
}
