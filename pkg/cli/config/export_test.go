package config

import "time"

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

func NewRepositoryForTest(backend, projectID, databaseURL string) *Repository {
	return &Repository{backend: backend, projectID: projectID, databaseURL: databaseURL}
}

func NewStorageForTest(driver, mediaDir, mediaPrefix string) *Storage {
	return &Storage{driver: driver, mediaDir: mediaDir, mediaPrefix: mediaPrefix}
}

func NewSentryForTest(dsn string) *Sentry {
	return &Sentry{dsn: dsn}
}

func NewAPIForTest(url string, timeout time.Duration) *API {
	return &API{url: url, timeout: timeout}
}

func NewWebAppForTest(apiURL string) *WebApp {
	return &WebApp{apiURL: apiURL}
}
