package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// DatabaseURL enables the result journal. postgres:// goes to pgx,
	// anything else is treated as a sqlite file path.
	DatabaseURL string `env:"DATABASE_URL"`

	ContentSafety ContentSafety
	Moderator     Moderator
	Vision        Vision
	CustomVision  CustomVision
	Language      Language
	Conversation  Conversation
	Speech        Speech
	Translator    Translator
	DocIntel      DocIntel
	OpenAI        OpenAI
	Search        Search
	Gemini        Gemini
	Telegram      Telegram
}

type ContentSafety struct {
	Endpoint string `env:"AZURE_CONTENT_SAFETY_ENDPOINT"`
	Key      string `env:"AZURE_CONTENT_SAFETY_KEY"`
}

func (c ContentSafety) Validate() error {
	return require("Azure Content Safety credentials not set",
		pair{"AZURE_CONTENT_SAFETY_ENDPOINT", c.Endpoint},
		pair{"AZURE_CONTENT_SAFETY_KEY", c.Key})
}

type Moderator struct {
	Endpoint string `env:"CONTENT_MODERATOR_ENDPOINT"`
	Key      string `env:"CONTENT_MODERATOR_KEY"`
}

func (c Moderator) Validate() error {
	return require("Content Moderator credentials not set",
		pair{"CONTENT_MODERATOR_ENDPOINT", c.Endpoint},
		pair{"CONTENT_MODERATOR_KEY", c.Key})
}

type Vision struct {
	Endpoint string `env:"AZURE_VISION_ENDPOINT"`
	Key      string `env:"AZURE_VISION_KEY"`
}

func (c Vision) Validate() error {
	return require("Azure Vision endpoint or key is missing",
		pair{"AZURE_VISION_ENDPOINT", c.Endpoint},
		pair{"AZURE_VISION_KEY", c.Key})
}

type CustomVision struct {
	TrainingEndpoint     string `env:"AZURE_CUSTOMVISION_TRAINING_ENDPOINT"`
	TrainingKey          string `env:"AZURE_CUSTOMVISION_TRAINING_KEY"`
	PredictionEndpoint   string `env:"AZURE_CUSTOMVISION_PREDICTION_ENDPOINT"`
	PredictionKey        string `env:"AZURE_CUSTOMVISION_PREDICTION_KEY"`
	PredictionResourceID string `env:"AZURE_CUSTOMVISION_PREDICTION_RESOURCE_ID"`
}

func (c CustomVision) ValidateTraining() error {
	return require("Missing training endpoint or key",
		pair{"AZURE_CUSTOMVISION_TRAINING_ENDPOINT", c.TrainingEndpoint},
		pair{"AZURE_CUSTOMVISION_TRAINING_KEY", c.TrainingKey})
}

func (c CustomVision) ValidatePrediction() error {
	return require("Missing prediction endpoint or key",
		pair{"AZURE_CUSTOMVISION_PREDICTION_ENDPOINT", c.PredictionEndpoint},
		pair{"AZURE_CUSTOMVISION_PREDICTION_KEY", c.PredictionKey})
}

// Validate checks everything a train-publish-predict run needs.
func (c CustomVision) Validate() error {
	return require("Missing Azure Custom Vision credentials or endpoints",
		pair{"AZURE_CUSTOMVISION_TRAINING_ENDPOINT", c.TrainingEndpoint},
		pair{"AZURE_CUSTOMVISION_TRAINING_KEY", c.TrainingKey},
		pair{"AZURE_CUSTOMVISION_PREDICTION_ENDPOINT", c.PredictionEndpoint},
		pair{"AZURE_CUSTOMVISION_PREDICTION_KEY", c.PredictionKey},
		pair{"AZURE_CUSTOMVISION_PREDICTION_RESOURCE_ID", c.PredictionResourceID})
}

type Language struct {
	Endpoint string `env:"AZURE_LANGUAGE_ENDPOINT"`
	Key      string `env:"AZURE_LANGUAGE_KEY"`
}

func (c Language) Validate() error {
	return require("Missing AZURE_LANGUAGE_ENDPOINT or AZURE_LANGUAGE_KEY",
		pair{"AZURE_LANGUAGE_ENDPOINT", c.Endpoint},
		pair{"AZURE_LANGUAGE_KEY", c.Key})
}

type Conversation struct {
	Endpoint   string `env:"AZURE_CONVERSATION_ENDPOINT"`
	Key        string `env:"AZURE_CONVERSATION_KEY"`
	Project    string `env:"AZURE_CONVERSATION_PROJECT" envDefault:"Menu"`
	Deployment string `env:"AZURE_CONVERSATION_DEPLOYMENT" envDefault:"production"`
}

func (c Conversation) Validate() error {
	return require("Azure endpoint or key missing",
		pair{"AZURE_CONVERSATION_ENDPOINT", c.Endpoint},
		pair{"AZURE_CONVERSATION_KEY", c.Key})
}

type Speech struct {
	Key    string `env:"SPEECH_KEY"`
	Region string `env:"SPEECH_REGION"`
	Voice  string `env:"SPEECH_VOICE" envDefault:"ml-IN-MidhunNeural"`
}

func (c Speech) Validate() error {
	return require("Missing SPEECH_KEY or SPEECH_REGION in environment",
		pair{"SPEECH_KEY", c.Key},
		pair{"SPEECH_REGION", c.Region})
}

type Translator struct {
	Endpoint string `env:"AZURE_TRANSLATION_ENDPOINT" envDefault:"https://api.cognitive.microsofttranslator.com"`
	Key      string `env:"AZURE_TRANSLATION_KEY"`
	Region   string `env:"AZURE_TRANSLATION_REGION"`
}

func (c Translator) Validate() error {
	return require("Missing Azure Translation credentials",
		pair{"AZURE_TRANSLATION_ENDPOINT", c.Endpoint},
		pair{"AZURE_TRANSLATION_KEY", c.Key},
		pair{"AZURE_TRANSLATION_REGION", c.Region})
}

type DocIntel struct {
	Endpoint string `env:"AZURE_DOC_INTELLIGENCE_ENDPOINT"`
	Key      string `env:"AZURE_DOC_INTELLIGENCE_KEY"`
}

func (c DocIntel) Validate() error {
	return require("Missing Azure Document Intelligence credentials",
		pair{"AZURE_DOC_INTELLIGENCE_ENDPOINT", c.Endpoint},
		pair{"AZURE_DOC_INTELLIGENCE_KEY", c.Key})
}

type OpenAI struct {
	Endpoint   string `env:"AZURE_OPENAI_ENDPOINT"`
	Key        string `env:"AZURE_OPENAI_API_KEY"`
	APIVersion string `env:"AZURE_OPENAI_API_VERSION" envDefault:"2024-05-01-preview"`
	Deployment string `env:"AZURE_OPENAI_DEPLOYMENT" envDefault:"gpt-4o-mini"`
	// Completion deployments are usually a separate instruct model.
	CompletionDeployment string `env:"AZURE_OPENAI_COMPLETION_DEPLOYMENT" envDefault:"gpt-35-turbo-instruct"`
}

func (c OpenAI) Validate() error {
	return require("Missing Azure OpenAI credentials",
		pair{"AZURE_OPENAI_ENDPOINT", c.Endpoint},
		pair{"AZURE_OPENAI_API_KEY", c.Key})
}

type Search struct {
	Endpoint string `env:"AZURE_AI_SEARCH_ENDPOINT"`
	Key      string `env:"AZURE_AI_SEARCH_API_KEY"`
	Index    string `env:"AZURE_AI_SEARCH_INDEX"`
}

func (c Search) Validate() error {
	return require("Missing Azure AI Search settings",
		pair{"AZURE_AI_SEARCH_ENDPOINT", c.Endpoint},
		pair{"AZURE_AI_SEARCH_API_KEY", c.Key},
		pair{"AZURE_AI_SEARCH_INDEX", c.Index})
}

type Gemini struct {
	APIKey string `env:"GEMINI_API_KEY"`
	Model  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
}

type Telegram struct {
	BotToken   string `env:"TELEGRAM_BOT_TOKEN"`
	WebhookURL string `env:"WEBHOOK_URL"`
}

func (c Telegram) Validate() error {
	return require("Missing Telegram settings", pair{"TELEGRAM_BOT_TOKEN", c.BotToken})
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads configuration from the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

type pair struct {
	name  string
	value string
}

func require(msg string, vars ...pair) error {
	var missing []string
	for _, v := range vars {
		if strings.TrimSpace(v.value) == "" {
			missing = append(missing, v.name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &MissingError{Message: msg, Vars: missing}
}

// MissingError lists the environment variables a service needs but did not get.
type MissingError struct {
	Message string
	Vars    []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s (missing: %s)", e.Message, strings.Join(e.Vars, ", "))
}
