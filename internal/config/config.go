package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed phrases.yaml
var phrasesYAML []byte

type Config struct {
	Database  DatabaseConfig
	Gemini    GeminiConfig
	OpenAI    OpenAIConfig
	Embedding EmbeddingConfig
	Speech    SpeechConfig
	Webhook   WebhookConfig
	Capture   CaptureConfig
	Phrases   PhrasesConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type GeminiConfig struct {
	APIKey string
}

type OpenAIConfig struct {
	Token string
	Voice string // TTS voice name, defaults to "nova"
}

type EmbeddingConfig struct {
	URL string // face embedding server, defaults to http://localhost:8000
}

type SpeechConfig struct {
	URL        string // streaming ASR websocket endpoint
	APIKey     string
	SampleRate int // PCM sample rate sent to the recognizer (default 16000)
}

type WebhookConfig struct {
	IFTTTKey string
}

type CaptureConfig struct {
	CameraDevice string // video4linux device node (default /dev/video0)
	MicDevice    string // ALSA capture device name (default "default")
}

// PhrasesConfig holds the spoken-interaction phrases embedded at build time.
type PhrasesConfig struct {
	WakeWord        string            `yaml:"wake_word"`
	Acknowledgments map[string]string `yaml:"acknowledgments"`
	ChatApology     string            `yaml:"chat_apology"`
	LightReplies    map[string]string `yaml:"light_replies"`
	PersonaPrompt   string            `yaml:"persona_prompt"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envString reads an environment variable with a fallback default.
func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func Load() *Config {
	var phrases PhrasesConfig
	if err := yaml.Unmarshal(phrasesYAML, &phrases); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded phrases.yaml: " + err.Error())
	}

	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
		},
		OpenAI: OpenAIConfig{
			Token: os.Getenv("OPENAI_TOKEN"),
			Voice: envString("OPENAI_TTS_VOICE", "nova"),
		},
		Embedding: EmbeddingConfig{
			URL: envString("EMBEDDING_URL", "http://localhost:8000"),
		},
		Speech: SpeechConfig{
			URL:        os.Getenv("SPEECH_WS_URL"),
			APIKey:     os.Getenv("SPEECH_API_KEY"),
			SampleRate: envInt("SPEECH_SAMPLE_RATE", 16000),
		},
		Webhook: WebhookConfig{
			IFTTTKey: os.Getenv("IFTTT_WEBHOOK_KEY"),
		},
		Capture: CaptureConfig{
			CameraDevice: envString("CAMERA_DEVICE", "/dev/video0"),
			MicDevice:    envString("MIC_DEVICE", "default"),
		},
		Phrases: phrases,
	}
}
