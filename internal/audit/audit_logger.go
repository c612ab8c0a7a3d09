package audit

import (
	"encoding/json"
	"log"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Action classifies an audited operation.
type Action string

const (
	ActionCreateSession Action = "create_session"
	ActionReplace       Action = "replace"
	ActionUndo          Action = "undo"
	ActionDeleteSession Action = "delete_session"
)

// Logger records every edit operation as one JSONL record on a rotating
// file, so a session's edit history stays reconstructable even though the
// service keeps no database.
type Logger struct {
	logger *log.Logger
}

// NewLogger creates an audit logger writing to logPath with size/age based
// rotation.
func NewLogger(logPath string) *Logger {
	writer := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    100, // MB
		MaxBackups: 10,
		MaxAge:     30, // days
		Compress:   true,
	}

	return &Logger{
		logger: log.New(writer, "", 0), // records carry their own timestamp
	}
}

// LogEdit records one replace operation, successful or failed.
func (a *Logger) LogEdit(sessionID string, startIndex, endIndex int, newText string, durationMs int64, err error) {
	if a == nil {
		return
	}
	record := map[string]interface{}{
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"action":      ActionReplace,
		"session_id":  sessionID,
		"start_index": startIndex,
		"end_index":   endIndex,
		"new_text":    newText,
		"duration_ms": durationMs,
		"result":      "success",
	}
	if err != nil {
		record["result"] = "failed"
		record["error_message"] = err.Error()
	}

	data, _ := json.Marshal(record)
	a.logger.Println(string(data))
}

// LogAction records a non-edit session operation.
func (a *Logger) LogAction(action Action, sessionID, details string) {
	if a == nil {
		return
	}
	record := map[string]interface{}{
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"action":     action,
		"session_id": sessionID,
	}
	if details != "" {
		record["details"] = details
	}

	data, _ := json.Marshal(record)
	a.logger.Println(string(data))
}
