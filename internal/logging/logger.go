// Package logging provides config-driven categorized file-based logging for docqa.
// Logs are written to .docqa/logs/ with separate files per category.
// Logging is controlled by debug_mode in the config - when false, no logs are written.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category/system.
type Category string

const (
	CategoryBoot         Category = "boot"         // Startup and wiring
	CategoryPipeline     Category = "pipeline"     // Graph runner, stage transitions
	CategoryRetrieval    Category = "retrieval"    // Retrieval stage and retriever calls
	CategoryDrafting     Category = "drafting"     // Drafting stage
	CategoryVerification Category = "verification" // Verification stage
	CategoryMemory       Category = "memory"       // Conversation summarizer
	CategoryAgent        Category = "agent"        // Agent wrapper tool loop
	CategoryAPI          Category = "api"          // LLM provider calls
	CategoryStore        Category = "store"        // Document store operations
	CategoryEmbedding    Category = "embedding"    // Embedding engine
	CategorySession      Category = "session"      // Session persistence
	CategoryIngest       Category = "ingest"       // Document indexing
)

// Settings mirrors the relevant parts of config.LoggingConfig to avoid a
// circular import with internal/config.
type Settings struct {
	DebugMode  bool
	Categories map[string]bool
	Level      string
}

// Log levels.
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Logger wraps a standard logger with category and file output.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string
	settings  Settings
	setMu     sync.RWMutex
	logLevel  int
)

// Initialize sets up the logging directory from the given settings.
// Should be called once at startup with the workspace path.
func Initialize(workspace string, s Settings) error {
	if workspace == "" {
		return fmt.Errorf("workspace path required")
	}

	setMu.Lock()
	settings = s
	switch s.Level {
	case "debug":
		logLevel = LevelDebug
	case "warn", "warning":
		logLevel = LevelWarn
	case "error":
		logLevel = LevelError
	default:
		logLevel = LevelInfo
	}
	setMu.Unlock()

	logsDir = filepath.Join(workspace, ".docqa", "logs")

	// Silent no-op in production mode.
	if !s.DebugMode {
		return nil
	}

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("=== docqa logging initialized ===")
	boot.Info("Logs directory: %s", logsDir)
	boot.Info("Log level: %s", s.Level)

	return nil
}

// IsDebugMode returns whether debug logging is enabled.
func IsDebugMode() bool {
	setMu.RLock()
	defer setMu.RUnlock()
	return settings.DebugMode
}

// IsCategoryEnabled returns whether a specific category is enabled.
func IsCategoryEnabled(category Category) bool {
	setMu.RLock()
	defer setMu.RUnlock()

	if !settings.DebugMode {
		return false
	}
	if settings.Categories == nil {
		return true
	}
	enabled, exists := settings.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode is disabled or the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) || logsDir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()

	if l, ok := loggers[category]; ok {
		return l
	}

	// Date prefix for easy rotation.
	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", date, category))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l

	return l
}

// Debug logs a debug message (only if level <= debug).
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelDebug {
		return
	}
	l.logger.Printf("[DEBUG] %s", fmt.Sprintf(format, args...))
}

// Info logs an informational message (only if level <= info).
func (l *Logger) Info(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelInfo {
		return
	}
	l.logger.Printf("[INFO] %s", fmt.Sprintf(format, args...))
}

// Warn logs a warning message (only if level <= warn).
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelWarn {
		return
	}
	l.logger.Printf("[WARN] %s", fmt.Sprintf(format, args...))
}

// Error logs an error message (always logged if logger exists).
func (l *Logger) Error(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[ERROR] %s", fmt.Sprintf(format, args...))
}

// CloseAll closes all open log files (call at shutdown).
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// These are no-ops if the category is disabled
// =============================================================================

// Boot logs to the boot category.
func Boot(format string, args ...interface{}) { Get(CategoryBoot).Info(format, args...) }

// Pipeline logs to the pipeline category.
func Pipeline(format string, args ...interface{}) { Get(CategoryPipeline).Info(format, args...) }

// PipelineDebug logs debug to the pipeline category.
func PipelineDebug(format string, args ...interface{}) { Get(CategoryPipeline).Debug(format, args...) }

// PipelineWarn logs warning to the pipeline category.
func PipelineWarn(format string, args ...interface{}) { Get(CategoryPipeline).Warn(format, args...) }

// Retrieval logs to the retrieval category.
func Retrieval(format string, args ...interface{}) { Get(CategoryRetrieval).Info(format, args...) }

// RetrievalDebug logs debug to the retrieval category.
func RetrievalDebug(format string, args ...interface{}) {
	Get(CategoryRetrieval).Debug(format, args...)
}

// RetrievalWarn logs warning to the retrieval category.
func RetrievalWarn(format string, args ...interface{}) { Get(CategoryRetrieval).Warn(format, args...) }

// Agent logs to the agent category.
func Agent(format string, args ...interface{}) { Get(CategoryAgent).Info(format, args...) }

// AgentDebug logs debug to the agent category.
func AgentDebug(format string, args ...interface{}) { Get(CategoryAgent).Debug(format, args...) }

// API logs to the api category.
func API(format string, args ...interface{}) { Get(CategoryAPI).Info(format, args...) }

// APIDebug logs debug to the api category.
func APIDebug(format string, args ...interface{}) { Get(CategoryAPI).Debug(format, args...) }

// APIError logs error to the api category.
func APIError(format string, args ...interface{}) { Get(CategoryAPI).Error(format, args...) }

// Memory logs to the memory category.
func Memory(format string, args ...interface{}) { Get(CategoryMemory).Info(format, args...) }

// MemoryDebug logs debug to the memory category.
func MemoryDebug(format string, args ...interface{}) { Get(CategoryMemory).Debug(format, args...) }

// Store logs to the store category.
func Store(format string, args ...interface{}) { Get(CategoryStore).Info(format, args...) }

// StoreDebug logs debug to the store category.
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }

// Embedding logs to the embedding category.
func Embedding(format string, args ...interface{}) { Get(CategoryEmbedding).Info(format, args...) }

// EmbeddingDebug logs debug to the embedding category.
func EmbeddingDebug(format string, args ...interface{}) {
	Get(CategoryEmbedding).Debug(format, args...)
}

// Session logs to the session category.
func Session(format string, args ...interface{}) { Get(CategorySession).Info(format, args...) }

// Ingest logs to the ingest category.
func Ingest(format string, args ...interface{}) { Get(CategoryIngest).Info(format, args...) }

// IngestDebug logs debug to the ingest category.
func IngestDebug(format string, args ...interface{}) { Get(CategoryIngest).Debug(format, args...) }

// =============================================================================
// TIMING HELPERS
// =============================================================================

// Timer helps measure operation duration.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}
