package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Preset is a named transcoding profile. Args are raw ffmpeg output options.
type Preset struct {
	Args       []string `yaml:"args" json:"args"`
	Label      string   `yaml:"label,omitempty" json:"label,omitempty"`
	EnableCrop bool     `yaml:"enableCrop,omitempty" json:"enableCrop,omitempty"`
}

type Presets map[string]Preset

type presetFile struct {
	Presets Presets `yaml:"presets"`
}

// DefaultPresets is used when no presets file is present.
func DefaultPresets() Presets {
	return Presets{
		"mobile360": {
			Label: "360p",
			Args:  []string{"-vf", "scale=-2:360", "-c:v", "libx264", "-preset", "veryfast", "-c:a", "aac", "-b:a", "96k"},
		},
		"hd720": {
			Label:      "720p",
			EnableCrop: true,
			Args:       []string{"-vf", "scale=-2:720", "-c:v", "libx264", "-preset", "medium", "-c:a", "aac", "-b:a", "128k"},
		},
		"hd1080": {
			Label:      "1080p",
			EnableCrop: true,
			Args:       []string{"-vf", "scale=-2:1080", "-c:v", "libx264", "-preset", "medium", "-crf", "22", "-c:a", "aac", "-b:a", "160k"},
		},
	}
}

func LoadPresets(path string) (Presets, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultPresets(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read presets file: %w", err)
	}
	return ParsePresets(data)
}

func ParsePresets(data []byte) (Presets, error) {
	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	if err := file.Presets.Validate(); err != nil {
		return nil, err
	}
	return file.Presets, nil
}

func (p Presets) Validate() error {
	if len(p) == 0 {
		return errors.New("at least one preset must be configured")
	}
	for name := range p {
		if name == "" {
			return errors.New("preset names must not be empty")
		}
	}
	return nil
}

func (p Presets) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
