package writer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// OutputDir is where session directories are created.
const OutputDir = "output"

// SessionManager manages per-run session directories: each analysis
// run gets its own directory holding the checkpoint, the session log,
// and a backup of the configuration it ran with.
type SessionManager struct {
	sessionDir string
	logger     *slog.Logger
}

// NewSessionManager creates a session manager. With a non-empty
// resumeFromSession it reuses that existing directory, otherwise it
// creates a fresh timestamped one.
func NewSessionManager(logger *slog.Logger, resumeFromSession string) (*SessionManager, error) {
	if err := os.MkdirAll(OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var sessionDir string
	if resumeFromSession != "" {
		if err := ValidateSessionPath(resumeFromSession); err != nil {
			return nil, fmt.Errorf("invalid session directory: %w", err)
		}
		sessionDir = filepath.Join(OutputDir, resumeFromSession)
		if _, err := os.Stat(sessionDir); os.IsNotExist(err) {
			return nil, fmt.Errorf("session directory not found: %s", sessionDir)
		}
		logger.Info("Resuming from existing session", "path", sessionDir)
	} else {
		timestamp := time.Now().Format("2006-01-02T15-04-05")
		sessionDir = filepath.Join(OutputDir, "session_"+timestamp)
		if err := os.MkdirAll(sessionDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
		logger.Info("Created new session directory", "path", sessionDir)
	}

	return &SessionManager{
		sessionDir: sessionDir,
		logger:     logger,
	}, nil
}

// SessionDir returns the session directory path.
func (sm *SessionManager) SessionDir() string {
	return sm.sessionDir
}

// CheckpointPath returns the full path to the checkpoint file.
func (sm *SessionManager) CheckpointPath() string {
	return filepath.Join(sm.sessionDir, "checkpoint.csv")
}

// LogPath returns the full path to the session log file.
func (sm *SessionManager) LogPath() string {
	return filepath.Join(sm.sessionDir, "session.log")
}

// ConfigBackupPath returns the full path to the config backup.
func (sm *SessionManager) ConfigBackupPath() string {
	return filepath.Join(sm.sessionDir, "config.toml.bak")
}

// BackupConfig copies the config file into the session directory so a
// resumed run can be checked against the configuration that started it.
func (sm *SessionManager) BackupConfig(configPath string) error {
	source, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	backupPath := sm.ConfigBackupPath()
	if err := os.WriteFile(backupPath, source, 0644); err != nil {
		return fmt.Errorf("failed to write config backup: %w", err)
	}

	sm.logger.Info("Backed up config file", "path", backupPath)
	return nil
}
