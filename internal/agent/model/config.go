package model

// ================ Config ================

// WorkflowConfig holds the tunables for session lifecycle and construction.
type WorkflowConfig struct {
	SessionTTL   string `envconfig:"SESSION_TTL" default:"1h"`
	Construction struct {
		ChunkSize     int  `envconfig:"CONSTRUCT_CHUNK_SIZE" default:"200"`
		SamplePaths   int  `envconfig:"CONSTRUCT_SAMPLE_PATHS" default:"3"`
		ClearExisting bool `envconfig:"CONSTRUCT_CLEAR_EXISTING" default:"false"`
	}
	Data struct {
		InputDir  string `envconfig:"DATA_INPUT_DIR" default:"./data/input"`
		OutputDir string `envconfig:"DATA_OUTPUT_DIR" default:"./data/output"`
	}
}

// ProposerModelConfig configures the model used to turn free text into
// structured stage suggestions.
type ProposerModelConfig struct {
	Model       string  `envconfig:"PROPOSER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"PROPOSER_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"PROPOSER_TEMPERATURE" default:"0.2"`
}
