package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/drewfead/meetlink/internal/meeting"
)

const (
	dataDirName     = ".meet_data"
	credentialsFile = "credentials.json"
	tokenCacheFile  = "tokencache.json"
	requestIDFile   = "request_id_cache"
)

// Paths is the on-disk layout of the data directory. It is built once at
// startup and handed to each component that touches disk.
type Paths struct {
	DataDir     string
	Credentials string
	TokenCache  string
	RequestID   string
}

// DefaultDataDir returns the default data directory path (~/.meet_data)
func DefaultDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: failed to get user home directory: %w", meeting.ErrConfig, err)
	}

	return filepath.Join(homeDir, dataDirName), nil
}

// NewPaths derives the file locations under dataDir. An empty dataDir selects
// the default; a leading ~ is expanded to the user's home directory.
func NewPaths(dataDir string) (Paths, error) {
	if dataDir == "" {
		def, err := DefaultDataDir()
		if err != nil {
			return Paths{}, err
		}
		dataDir = def
	}

	dir, err := expandHome(dataDir)
	if err != nil {
		return Paths{}, err
	}

	dir, err = filepath.Abs(dir)
	if err != nil {
		return Paths{}, fmt.Errorf("%w: failed to resolve data directory %q: %w", meeting.ErrConfig, dataDir, err)
	}

	return Paths{
		DataDir:     dir,
		Credentials: filepath.Join(dir, credentialsFile),
		TokenCache:  filepath.Join(dir, tokenCacheFile),
		RequestID:   filepath.Join(dir, requestIDFile),
	}, nil
}

// Validate checks that the data directory exists and is a directory
func (p Paths) Validate() error {
	info, err := os.Stat(p.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: data directory %s does not exist", meeting.ErrConfig, p.DataDir)
		}
		return fmt.Errorf("%w: failed to stat data directory: %w", meeting.ErrConfig, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", meeting.ErrConfig, p.DataDir)
	}

	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: failed to get user home directory: %w", meeting.ErrConfig, err)
	}

	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}
