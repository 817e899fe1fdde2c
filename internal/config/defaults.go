package config

// DefaultModelVersion is the text-generation model used for both the embedding
// side call and answer generation.
const DefaultModelVersion = "f1d50bb24186c52daae319ca8366e53debdaa9e0ae7ff976e918df752732ccc4"

// DefaultRequestTimeoutSecs covers a full answer-generation polling run.
const DefaultRequestTimeoutSecs = 600

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.RequestTimeoutSecs == 0 {
		cfg.Server.RequestTimeoutSecs = DefaultRequestTimeoutSecs
	}
	if cfg.Server.CORSOrigins == nil {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/screwsavvy.db"
	}
	if cfg.Storage.FeedbackSink == "" {
		cfg.Storage.FeedbackSink = "sqlite"
	}
	if cfg.Storage.FeedbackPath == "" {
		cfg.Storage.FeedbackPath = "./data/feedback_data.json"
	}
	if cfg.Vector.Type == "" {
		cfg.Vector.Type = "qdrant"
	}
	if cfg.Vector.URL == "" {
		cfg.Vector.URL = "http://localhost:6333"
	}
	if cfg.Vector.Collection == "" {
		cfg.Vector.Collection = "screws"
	}
	if cfg.Vector.TimeoutSecs == 0 {
		cfg.Vector.TimeoutSecs = 30
	}
	if cfg.Inference.BaseURL == "" {
		cfg.Inference.BaseURL = "https://api.replicate.com/v1"
	}
	if cfg.Inference.ModelVersion == "" {
		cfg.Inference.ModelVersion = DefaultModelVersion
	}
	if cfg.Inference.PollIntervalMs == 0 {
		cfg.Inference.PollIntervalMs = 1000
	}
	if cfg.Inference.EmbeddingMaxAttempts == 0 {
		cfg.Inference.EmbeddingMaxAttempts = 10
	}
	if cfg.Inference.AnswerMaxAttempts == 0 {
		cfg.Inference.AnswerMaxAttempts = 30
	}
	if cfg.Inference.TimeoutSecs == 0 {
		cfg.Inference.TimeoutSecs = 30
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1536
	}
	if cfg.Embedding.PromptChars == 0 {
		cfg.Embedding.PromptChars = 500
	}
	if cfg.Embedding.Window == 0 {
		cfg.Embedding.Window = 10
	}
	if cfg.Embedding.MaxLength == 0 {
		cfg.Embedding.MaxLength = 50
	}
	if cfg.Embedding.Temperature == 0 {
		cfg.Embedding.Temperature = 0.1
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 500
	}
	if cfg.Retrieval.Limit == 0 {
		cfg.Retrieval.Limit = 5
	}
	if cfg.Retrieval.ScoreThreshold == 0 {
		cfg.Retrieval.ScoreThreshold = 0.7
	}
	if cfg.Generation.MaxLength == 0 {
		cfg.Generation.MaxLength = 500
	}
	if cfg.Generation.Temperature == 0 {
		cfg.Generation.Temperature = 0.7
	}
	if cfg.Generation.TopP == 0 {
		cfg.Generation.TopP = 0.9
	}
	if cfg.Generation.RepetitionPenalty == 0 {
		cfg.Generation.RepetitionPenalty = 1.15
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md", ".pdf", ".docx", ".xlsx"}
	}
}
