package config

import "time"

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(projectID, location string) *Gemini {
	return &Gemini{
		projectID: projectID,
		location:  location,
	}
}

func NewGenAIForTest(gemini Gemini, openai OpenAI, timeout time.Duration) *GenAI {
	return &GenAI{
		Gemini:  gemini,
		OpenAI:  openai,
		timeout: timeout,
	}
}

func NewAuthForTest(jwtSecret, noAuthUID string) *Auth {
	return &Auth{
		jwtSecret: jwtSecret,
		noAuthUID: noAuthUID,
	}
}

func NewSlackForTest(botToken, channelID string) *Slack {
	return &Slack{
		botToken:  botToken,
		channelID: channelID,
	}
}

func NewRepositoryForTest(backend, projectID, postgresDSN string) *Repository {
	return &Repository{
		backend:     backend,
		projectID:   projectID,
		postgresDSN: postgresDSN,
	}
}

func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

func NewCORSForTest(origins ...string) *CORS {
	return &CORS{origins: origins}
}
