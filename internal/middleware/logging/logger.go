package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type Config struct {
	Enabled    bool   // Включено ли логирование
	Level      string // DEBUG, INFO, WARN, ERROR
	LogsDir    string // Директория для логов
	SavingDays uint   // Сколько дней хранить логи
}

type Logger struct {
	config *Config
	logger *logrus.Logger
	file   *os.File
	prefix string
}

func NewLogger(cfg *Config, prefix string) *Logger {
	l := &Logger{
		config: cfg,
		prefix: prefix,
	}

	var output io.Writer = os.Stdout
	if cfg.Enabled && cfg.LogsDir != "" {
		if err := os.MkdirAll(cfg.LogsDir, 0755); err == nil {
			logFile := filepath.Join(cfg.LogsDir, time.Now().Format("2006-01-02")+".log")
			if file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
				l.file = file
				output = io.MultiWriter(os.Stdout, file)
			}
		}
	}

	l.logger = newLogrus(cfg, output)

	if cfg.Enabled && cfg.SavingDays > 0 && cfg.LogsDir != "" {
		go l.cleanOldLogs()
	}

	return l
}

// NewNop возвращает логгер, который ничего не пишет (для тестов)
func NewNop() *Logger {
	cfg := &Config{Enabled: false}
	return &Logger{
		config: cfg,
		logger: newLogrus(cfg, io.Discard),
	}
}

func newLogrus(cfg *Config, output io.Writer) *logrus.Logger {
	logger := logrus.New()
	if !cfg.Enabled {
		logger.SetOutput(io.Discard)
	} else {
		logger.SetOutput(output)
	}

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Настраиваем форматтер с понятным форматом времени
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return logger
}

func (l *Logger) WithPrefix(prefix string) *Logger {
	newPrefix := l.prefix
	if newPrefix != "" {
		newPrefix += " "
	}
	newPrefix += "[" + prefix + "]"

	return &Logger{
		config: l.config,
		logger: l.logger,
		file:   l.file,
		prefix: newPrefix,
	}
}

func (l *Logger) cleanOldLogs() {
	for range time.Tick(24 * time.Hour) {
		files, err := os.ReadDir(l.config.LogsDir)
		if err != nil {
			l.Error("Failed to read logs directory", "error", err)
			continue
		}

		cutoff := time.Now().AddDate(0, 0, int(-l.config.SavingDays))
		for _, file := range files {
			if info, err := file.Info(); err == nil && !file.IsDir() && info.ModTime().Before(cutoff) {
				if err := os.Remove(filepath.Join(l.config.LogsDir, file.Name())); err != nil {
					l.Error("Failed to delete old log file", "file", file.Name(), "error", err)
				}
			}
		}
	}
}

func (l *Logger) entry(fields ...interface{}) *logrus.Entry {
	data := make(logrus.Fields, len(fields)/2+1)
	if l.prefix != "" {
		data["component"] = l.prefix
	}
	for i := 0; i < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		var val interface{} = "?"
		if i+1 < len(fields) {
			val = fields[i+1]
		}
		data[key] = val
	}
	return l.logger.WithFields(data)
}

func (l *Logger) ShouldLog(level string) bool {
	if !l.config.Enabled {
		return false
	}
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return false
	}
	return l.logger.IsLevelEnabled(lvl)
}

func (l *Logger) Debug(msg string, fields ...interface{}) { l.entry(fields...).Debug(msg) }
func (l *Logger) Info(msg string, fields ...interface{})  { l.entry(fields...).Info(msg) }
func (l *Logger) Warn(msg string, fields ...interface{})  { l.entry(fields...).Warn(msg) }
func (l *Logger) Error(msg string, fields ...interface{}) { l.entry(fields...).Error(msg) }

func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
