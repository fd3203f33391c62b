package log

// Logging for the claimer
// Console logger shows claim status lines (SUCCESS, WARN, ERROR)
// File logger keeps everything including debug and request traces in logs/app.log

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var Logger *zap.Logger
var consoleLogger *zap.Logger // claim status lines
var fileLogger *zap.Logger    // full trace, nop until Setup
var mu sync.RWMutex

func init() {
	console, err := buildConsoleLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize console logger: %v\n", err)
		console = zap.NewNop()
	}
	consoleLogger = console
	fileLogger = zap.NewNop()
	Logger = fileLogger
}

// Setup enables the file sink in dir/app.log
func Setup(dir string) error {
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	fileConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}

	writer, err := getLogFileWriter(filepath.Join(dir, "app.log"))
	if err != nil {
		return err
	}

	fileCore := zapcore.NewCore(
		&customFileEncoder{Encoder: zapcore.NewConsoleEncoder(fileConfig)},
		writer,
		zapcore.DebugLevel,
	)

	mu.Lock()
	fileLogger = zap.New(fileCore)
	Logger = fileLogger
	mu.Unlock()
	return nil
}

// SetConsole replaces the console logger, used by tests to silence or capture output
func SetConsole(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		l = zap.NewNop()
	}
	consoleLogger = l
}

// Sync flushes both sinks
func Sync() {
	file, console := loggers()
	_ = file.Sync()
	_ = console.Sync()
}

func buildConsoleLogger() (*zap.Logger, error) {
	consoleConfig := zap.NewDevelopmentConfig()
	consoleConfig.EncoderConfig.EncodeLevel = customLevelEncoder
	consoleConfig.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	consoleConfig.EncoderConfig.EncodeCaller = nil
	consoleConfig.Development = false
	consoleConfig.DisableStacktrace = true
	consoleConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	consoleConfig.OutputPaths = []string{"stdout"}

	l, err := consoleConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build console logger: %w", err)
	}
	return l, nil
}

func loggers() (*zap.Logger, *zap.Logger) {
	mu.RLock()
	defer mu.RUnlock()
	return fileLogger, consoleLogger
}

// GenerateRequestID returns a short random id for RPC request tracing
func GenerateRequestID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// LogRequest RPC request (file only)
func LogRequest(requestID, method string, fields ...zap.Field) {
	file, _ := loggers()
	allFields := append([]zap.Field{
		zap.String("request_id", requestID),
		zap.String("method", method),
	}, fields...)
	file.Info("RPC request", allFields...)
}

// LogResponse RPC response; failures also reach the console
func LogResponse(requestID, method string, durationMs int64, err error) {
	file, console := loggers()
	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.Int64("duration_ms", durationMs),
	}
	if err == nil {
		file.Info("RPC response", fields...)
		return
	}
	file.Error("RPC response", append(fields, zap.Error(err))...)
	console.Error(fmt.Sprintf("✗ RPC %s failed: %v", method, err))
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorWhite  = "\033[37m"
)

func customLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch level {
	case zapcore.DebugLevel:
		enc.AppendString(colorCyan + "DEBUG" + colorReset)
	case zapcore.InfoLevel:
		enc.AppendString(colorGreen + "SUCCESS" + colorReset) // INFO on console = SUCCESS
	case zapcore.WarnLevel:
		enc.AppendString(colorYellow + "WARN" + colorReset)
	case zapcore.ErrorLevel:
		enc.AppendString(colorRed + "ERROR" + colorReset)
	case zapcore.FatalLevel:
		enc.AppendString(colorRed + "FATAL" + colorReset)
	case zapcore.PanicLevel:
		enc.AppendString(colorRed + "PANIC" + colorReset)
	default:
		enc.AppendString(colorWhite + level.String() + colorReset)
	}
}

// LogInfo (file only)
func LogInfo(message string, fields ...zap.Field) {
	file, _ := loggers()
	file.Info(message, fields...)
}

// LogNotice (file and console, no marker)
func LogNotice(message string, fields ...zap.Field) {
	file, console := loggers()
	file.Info(message, fields...)
	console.Info(message)
}

// LogSuccess (file and console)
func LogSuccess(message string, fields ...zap.Field) {
	file, console := loggers()
	file.Info(message, fields...)

	if durationMs := extractDuration(fields); durationMs > 0 {
		console.Info(fmt.Sprintf("✓ %s (%dms)", message, durationMs))
	} else {
		console.Info("✓ " + message)
	}
}

// LogError (file and console)
func LogError(message string, fields ...zap.Field) {
	file, console := loggers()
	file.Error(message, fields...)

	if errText := extractError(fields); errText != "" {
		console.Error(fmt.Sprintf("✗ %s: %s", message, errText))
	} else {
		console.Error("✗ " + message)
	}
}

// LogWarn (file and console)
func LogWarn(message string, fields ...zap.Field) {
	file, console := loggers()
	file.Warn(message, fields...)
	console.Warn(message)
}

// LogDebug (file only)
func LogDebug(message string, fields ...zap.Field) {
	file, _ := loggers()
	file.Debug(message, fields...)
}

// LogJSON pretty prints a raw RPC payload into the file
func LogJSON(data []byte, label string) {
	file, _ := loggers()
	var prettyJSON interface{}
	if err := json.Unmarshal(data, &prettyJSON); err == nil {
		formatted, err := json.MarshalIndent(prettyJSON, "", "  ")
		if err == nil {
			file.Debug(label)
			file.Sugar().Debugf("\n%s\n", string(formatted))
			return
		}
	}
	file.Debug(label, zap.String("response", string(data)))
}

func extractDuration(fields []zap.Field) int64 {
	for _, field := range fields {
		if field.Key == "duration_ms" && field.Type == zapcore.Int64Type {
			return field.Integer
		}
	}
	return 0
}

func extractError(fields []zap.Field) string {
	for _, field := range fields {
		if field.Type != zapcore.ErrorType || field.Interface == nil {
			continue
		}
		if err, ok := field.Interface.(error); ok {
			return err.Error()
		}
	}
	return ""
}

const (
	// MaxLogFileSize - the file is truncated once it grows past 50MB
	MaxLogFileSize = 50 * 1024 * 1024
)

type truncatingLogWriter struct {
	file *os.File
	path string
	mu   sync.Mutex
}

func (w *truncatingLogWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	info, err := w.file.Stat()
	if err == nil && info.Size() > MaxLogFileSize {
		w.file.Close()
		w.file, err = os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return 0, fmt.Errorf("failed to truncate log file: %w", err)
		}
	}

	return w.file.Write(p)
}

func (w *truncatingLogWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Sync()
}

func getLogFileWriter(path string) (zapcore.WriteSyncer, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if info, err := os.Stat(path); err == nil && info.Size() > MaxLogFileSize {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}

	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	return zapcore.AddSync(&truncatingLogWriter{file: file, path: path}), nil
}

// customFileEncoder writes "time     LEVEL message\t{json fields}"
type customFileEncoder struct {
	zapcore.Encoder
}

func (e *customFileEncoder) Clone() zapcore.Encoder {
	return &customFileEncoder{
		Encoder: e.Encoder.Clone(),
	}
}

func (e *customFileEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	buf := buffer.NewPool().Get()

	buf.AppendString(entry.Time.Format("2006-01-02 15:04:05"))
	buf.AppendString("     ")
	buf.AppendString(entry.Level.CapitalString())
	buf.AppendString(" ")
	buf.AppendString(entry.Message)

	if len(fields) > 0 {
		buf.AppendString("\t")
		if jsonData, err := json.Marshal(fieldsToMap(fields)); err == nil {
			buf.AppendString(string(jsonData))
		}
	}

	buf.AppendString("\n")
	return buf, nil
}

func fieldsToMap(fields []zapcore.Field) map[string]interface{} {
	fieldMap := make(map[string]interface{}, len(fields))
	for _, field := range fields {
		switch field.Type {
		case zapcore.StringType:
			fieldMap[field.Key] = field.String
		case zapcore.Int64Type, zapcore.Int32Type, zapcore.Uint64Type, zapcore.Uint32Type:
			fieldMap[field.Key] = field.Integer
		case zapcore.BoolType:
			fieldMap[field.Key] = field.Integer == 1
		case zapcore.DurationType:
			fieldMap[field.Key] = time.Duration(field.Integer).String()
		case zapcore.ErrorType:
			if err, ok := field.Interface.(error); ok {
				fieldMap[field.Key] = err.Error()
			}
		default:
			if field.Interface != nil {
				fieldMap[field.Key] = field.Interface
			} else if field.String != "" {
				fieldMap[field.Key] = field.String
			} else {
				fieldMap[field.Key] = field.Integer
			}
		}
	}
	return fieldMap
}
