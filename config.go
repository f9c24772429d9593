package main

import (
	"gopkg.in/ini.v1"
)

type Config struct {
	LogLevel   string
	LockFile   string
	UseDBus    bool
	SessionBus bool
}

func defaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		LockFile: "/var/run/mce.lock",
		UseDBus:  true,
	}
}

func loadConfigFromFile(configPath string) (*Config, error) {
	file, err := ini.Load(configPath)
	if err != nil {
		return nil, err
	}

	config := defaultConfig()
	section := file.Section("mce")
	config.LogLevel = section.Key("loglevel").MustString(config.LogLevel)
	config.LockFile = section.Key("lockfile").MustString(config.LockFile)
	config.UseDBus = section.Key("usedbus").MustBool(config.UseDBus)
	config.SessionBus = section.Key("sessionbus").MustBool(config.SessionBus)
	return config, nil
}

func initConfig(configPath string) *Config {
	config, err := loadConfigFromFile(configPath)
	if err != nil {
		lg.Info("could not load config, using defaults", "path", configPath, "error", err)
		return defaultConfig()
	}
	return config
}
