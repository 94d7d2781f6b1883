package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/xdg"
)

const (
	appName      = "pagedetect"
	DefaultLabel = "Default"
)

var ErrNoConfig = errors.New("no config selected")

func ConfigRoot() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

func ConfigsDir() string {
	return filepath.Join(ConfigRoot(), "configs")
}

func CurrentLabelFile() string {
	return filepath.Join(ConfigRoot(), "current_config")
}

func PathForLabel(label string) string {
	return filepath.Join(ConfigsDir(), label+".yaml")
}

func ensureDirs() error {
	return os.MkdirAll(ConfigsDir(), 0o755)
}

func validLabel(label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return errors.New("label cannot be empty")
	}
	if strings.ContainsAny(label, `/\`) || label == "." || label == ".." {
		return fmt.Errorf("invalid label %q", label)
	}

	return nil
}

func CurrentLabel() (string, error) {
	b, err := os.ReadFile(CurrentLabelFile())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoConfig
	}
	if err != nil {
		return "", err
	}

	label := strings.TrimSpace(string(b))
	if label == "" {
		return "", ErrNoConfig
	}

	return label, nil
}

func ActiveConfigPath() (string, error) {
	label, err := CurrentLabel()
	if err != nil {
		return "", err
	}

	return PathForLabel(label), nil
}

// ConfigPathByLabel returns the profile path for label, failing when it does
// not exist.
func ConfigPathByLabel(label string) (string, error) {
	if err := validLabel(label); err != nil {
		return "", err
	}

	path := PathForLabel(label)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("config %q does not exist", label)
	}

	return path, nil
}

type ConfigInfo struct {
	Label  string
	Path   string
	Active bool
}

func ListConfigs() ([]ConfigInfo, error) {
	if err := ensureDirs(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(ConfigsDir())
	if err != nil {
		return nil, err
	}

	active, _ := CurrentLabel()
	var out []ConfigInfo

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}

		label := strings.TrimSuffix(name, ".yaml")
		out = append(out, ConfigInfo{
			Label:  label,
			Path:   filepath.Join(ConfigsDir(), name),
			Active: label == active,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })

	return out, nil
}

func SwitchConfig(label string) error {
	path, err := ConfigPathByLabel(label)
	if err != nil {
		return err
	}
	if _, err := loadYAML(path); err != nil {
		return fmt.Errorf("config %q is not valid YAML: %w", label, err)
	}

	return os.WriteFile(CurrentLabelFile(), []byte(label), 0o644)
}

// AddConfig imports an existing YAML file as a new profile. An empty srcPath
// creates the profile from defaults.
func AddConfig(label, srcPath string) (string, error) {
	if err := validLabel(label); err != nil {
		return "", err
	}
	if err := ensureDirs(); err != nil {
		return "", err
	}

	dst := PathForLabel(label)
	if _, err := os.Stat(dst); err == nil {
		return "", fmt.Errorf("config %q already exists", label)
	}

	if srcPath == "" {
		return dst, SaveYAML(DefaultConfig(), dst)
	}

	cfg, err := loadYAML(srcPath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", srcPath, err)
	}
	if err := cfg.Detect.Validate(); err != nil {
		return "", fmt.Errorf("%s: detect: %w", srcPath, err)
	}

	return dst, SaveYAML(cfg, dst)
}

func RenameConfig(oldLabel, newLabel string) error {
	if err := validLabel(newLabel); err != nil {
		return err
	}

	oldPath, err := ConfigPathByLabel(oldLabel)
	if err != nil {
		return err
	}

	newPath := PathForLabel(newLabel)
	if _, err := os.Stat(newPath); err == nil {
		return fmt.Errorf("config %q already exists", newLabel)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return err
	}

	if active, _ := CurrentLabel(); active == oldLabel {
		return os.WriteFile(CurrentLabelFile(), []byte(newLabel), 0o644)
	}

	return nil
}

// RemoveConfig deletes a profile. Removing the active profile switches back
// to Default and reports it.
func RemoveConfig(label string) (switched bool, err error) {
	if label == DefaultLabel {
		return false, errors.New("cannot remove the Default config")
	}

	path, err := ConfigPathByLabel(label)
	if err != nil {
		return false, err
	}

	if active, _ := CurrentLabel(); active == label {
		if err := SwitchConfig(DefaultLabel); err != nil {
			return false, fmt.Errorf("failed switching to Default: %w", err)
		}
		switched = true
	}

	return switched, os.Remove(path)
}

func ResetConfig(label string) (string, error) {
	path, err := ConfigPathByLabel(label)
	if err != nil {
		return "", err
	}

	return path, SaveYAML(DefaultConfig(), path)
}

// InitDefaultConfig writes the Default profile and makes it active. An
// existing Default profile is kept and os.ErrExist is returned with its path.
func InitDefaultConfig() (string, error) {
	if err := ensureDirs(); err != nil {
		return "", err
	}

	path := PathForLabel(DefaultLabel)
	if _, err := os.Stat(path); err == nil {
		return path, errors.Join(os.ErrExist, os.WriteFile(CurrentLabelFile(), []byte(DefaultLabel), 0o644))
	}

	if err := SaveYAML(DefaultConfig(), path); err != nil {
		return "", err
	}

	return path, os.WriteFile(CurrentLabelFile(), []byte(DefaultLabel), 0o644)
}
