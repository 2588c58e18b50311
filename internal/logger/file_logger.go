package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/quantaris/risk-engine/internal/risk"
)

// Logger represents a file logger for risk engine activity
type Logger struct {
	name    string
	logFile *os.File
	logger  *log.Logger
	mu      sync.Mutex
	logDir  string
}

// LogLevel represents different types of log entries
type LogLevel string

const (
	LogLevelInfo     LogLevel = "INFO"
	LogLevelWarning  LogLevel = "WARN"
	LogLevelError    LogLevel = "ERROR"
	LogLevelDecision LogLevel = "DECISION"
	LogLevelSafety   LogLevel = "SAFETY"
)

// NewLogger creates a new file logger under logs/, one file per day
func NewLogger(name string) (*Logger, error) {
	logDir := "logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02")
	filename := fmt.Sprintf("%s_%s.log", name, timestamp)
	logPath := filepath.Join(logDir, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := &Logger{
		name:    name,
		logFile: file,
		logger:  log.New(file, "", 0),
		logDir:  logDir,
	}

	l.writeSessionHeader()

	return l, nil
}

// writeSessionHeader writes a session start header to the log
func (l *Logger) writeSessionHeader() {
	l.mu.Lock()
	defer l.mu.Unlock()

	header := fmt.Sprintf(`
================================================================================
🛡️ RISK ENGINE SESSION STARTED
================================================================================
Engine: %s
Started: %s
================================================================================
`, l.name, time.Now().Format("2006-01-02 15:04:05"))

	l.logger.Print(header)
}

// Log writes a formatted log entry with the specified level
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	l.logger.Println(fmt.Sprintf("[%s] [%s] %s", timestamp, level, message))
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(LogLevelWarning, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

// LogDecision logs the outcome of one assessment
func (l *Logger) LogDecision(req risk.TradeRequest, d risk.Decision) {
	if d.Approved {
		l.Log(LogLevelDecision, "✅ %s %s APPROVED - qty %.6f, margin $%.2f, stop %.4f (%s), score %.1f",
			req.Symbol, req.Direction, d.Quantity, d.Margin, d.StopPrice, d.StopType, d.Score)
		return
	}
	l.Log(LogLevelDecision, "❌ %s %s REJECTED - %s, score %.1f",
		req.Symbol, req.Direction, d.Reason, d.Score)
}

// LogSafetyTransition logs a drawdown safety level change
func (l *Logger) LogSafetyTransition(from, to risk.SafetyLevel, dailyPct, monthlyPct float64) {
	l.Log(LogLevelSafety, "⚠️ Safety level %s -> %s (daily %.2f%%, monthly %.2f%%)",
		from, to, dailyPct, monthlyPct)
}

// LogStopAdjustment logs a stop level move
func (l *Logger) LogStopAdjustment(symbol string, stopType string, oldLevel, newLevel float64) {
	l.Info("Stop adjusted for %s (%s): %.4f -> %.4f", symbol, stopType, oldLevel, newLevel)
}

// LogError logs error with context
func (l *Logger) LogError(context string, err error) {
	l.Error("%s: %v", context, err)
}

// Close closes the log file
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile != nil {
		footer := fmt.Sprintf(`
================================================================================
🛑 RISK ENGINE SESSION ENDED
================================================================================
Ended: %s
================================================================================

`, time.Now().Format("2006-01-02 15:04:05"))
		l.logger.Print(footer)

		return l.logFile.Close()
	}
	return nil
}

// GetLogPath returns the current log file path
func (l *Logger) GetLogPath() string {
	timestamp := time.Now().Format("2006-01-02")
	return filepath.Join(l.logDir, fmt.Sprintf("%s_%s.log", l.name, timestamp))
}
