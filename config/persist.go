package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/pxharvest/pxharvest/errors"
)

// createBackup creates rotating backups (.back1, .back2, .back3) before modifying config
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil // No file to backup
	}

	// Rotate backups: .back3 -> delete, .back2 -> .back3, .back1 -> .back2, current -> .back1
	back3 := configPath + ".back3"
	back2 := configPath + ".back2"
	back1 := configPath + ".back1"

	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		// Log deletion failures (but don't fail config save)
		fmt.Printf("⚠️  Failed to delete old backup %s: %v\n", back3, err)
	}

	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}

	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	if err := os.WriteFile(back1, content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}

	return nil
}

// loadOrInitializeUserConfig loads the user config file, or starts an empty
// one if it doesn't exist yet.
func loadOrInitializeUserConfig(configPath string) (map[string]interface{}, error) {
	if err := os.MkdirAll(filepath.Dir(configPath), DefaultDirPermissions); err != nil {
		return nil, errors.Wrap(err, "failed to create config directory")
	}

	var config map[string]interface{}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, errors.Wrap(err, "failed to parse user config")
		}
	} else {
		config = make(map[string]interface{})
	}

	return config, nil
}

// saveUserConfig writes the config to the user config file with backup
func saveUserConfig(config map[string]interface{}, configPath string) error {
	if err := createBackup(configPath); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(configPath, data, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to write user config")
	}

	return nil
}

// SetValueAt updates one dotted key (e.g. "batch.workers") in the given
// config file, creating intermediate sections as needed. Values that look
// like numbers or booleans are stored typed, everything else as a string.
func SetValueAt(configPath, key, value string) error {
	if configPath == "" {
		return errors.New("could not determine config path")
	}
	parts := strings.Split(key, ".")
	for _, part := range parts {
		if part == "" {
			return errors.Newf("invalid config key: %s", key)
		}
	}

	config, err := loadOrInitializeUserConfig(configPath)
	if err != nil {
		return err
	}

	section := config
	for _, part := range parts[:len(parts)-1] {
		child, ok := section[part].(map[string]interface{})
		if !ok {
			child = make(map[string]interface{})
			section[part] = child
		}
		section = child
	}
	section[parts[len(parts)-1]] = coerceValue(value)

	if err := saveUserConfig(config, configPath); err != nil {
		return err
	}

	// Drop the cache so the next Load sees the new value.
	Reset()
	return nil
}

// SetValue updates one dotted key in the per-user config file.
func SetValue(key, value string) error {
	return SetValueAt(UserConfigPath(), key, value)
}

// InitUserConfig writes a starter config file holding the defaults to the
// per-user path. Refuses to overwrite an existing file and returns the path
// either way.
func InitUserConfig() (string, error) {
	configPath := UserConfigPath()
	if configPath == "" {
		return "", errors.New("could not determine home directory")
	}

	if _, err := os.Stat(configPath); err == nil {
		return configPath, errors.Newf("config file already exists at %s", configPath)
	}

	v := viper.New()
	SetDefaults(v)

	if err := os.MkdirAll(filepath.Dir(configPath), DefaultDirPermissions); err != nil {
		return "", errors.Wrap(err, "failed to create config directory")
	}

	data, err := toml.Marshal(v.AllSettings())
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal defaults")
	}

	if err := os.WriteFile(configPath, data, DefaultFilePermissions); err != nil {
		return "", errors.Wrap(err, "failed to write config")
	}

	return configPath, nil
}

func coerceValue(value string) interface{} {
	// ParseBool would also swallow "1" and "0", which belong to the
	// integer branch, so only the spelled-out forms count as booleans.
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}
