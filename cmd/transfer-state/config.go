package main

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/transfer-state/transfer-state/render"
)

type Config struct {
	Port          int             `yaml:"port"`
	Upstream      string          `yaml:"upstream"`
	SessionCookie string          `yaml:"sessionCookie"`
	Templates     string          `yaml:"templates"`
	Locales       []render.Locale `yaml:"locales"`
	Routes        []render.Route  `yaml:"routes"`
}

func getConfig(filename string) (Config, error) {
	var config Config
	configBytes, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = yaml.Unmarshal(configBytes, &config)
	return config, err
}
