package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	voicescribeDir := filepath.Join(configDir, "voicescribe")
	if err := os.MkdirAll(voicescribeDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(voicescribeDir, "config.toml"), nil
}

// Load reads the config file, writing the defaults first if it is missing.
// Keys absent from the file keep their default values.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(configPath)
}

func LoadFile(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Printf("Config: no config file found at %s, creating with defaults", configPath)
		if err := os.WriteFile(configPath, []byte(defaultConfigContent), 0600); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat config file %s: %w", configPath, err)
	}

	log.Printf("Config: loading configuration from %s", configPath)
	config := DefaultConfig()
	meta, err := toml.DecodeFile(configPath, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	for _, key := range meta.Undecoded() {
		log.Printf("Config: ignoring unknown key %s", key)
	}

	log.Printf("Config: configuration loaded successfully")
	return config, nil
}

// Save writes config to the default location.
func Save(config *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(configPath, config)
}

func SaveFile(configPath string, config *Config) error {
	tmp := configPath + ".tmp"
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	if _, err := file.WriteString("# Voicescribe Configuration\n# Written by `voicescribe configure`.\n\n"); err != nil {
		file.Close()
		return fmt.Errorf("failed to write config content: %w", err)
	}
	if err := toml.NewEncoder(file).Encode(config); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write config content: %w", err)
	}

	// rename so the watcher sees one complete file
	if err := os.Rename(tmp, configPath); err != nil {
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	log.Printf("Config: configuration saved to %s", configPath)
	return nil
}
