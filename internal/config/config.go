package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/brogergvhs/pagedetect/internal/detect"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Output         string   `yaml:"output"`
	ImageWorkers   int      `yaml:"image_workers"`
	ChapterWorkers int      `yaml:"chapter_workers"`
	KeepFolders    bool     `yaml:"keep_folders"`
	Debug          bool     `yaml:"debug"`
	AllowExt       []string `yaml:"allow_ext"`
	CheckJS        bool     `yaml:"check_js"`

	DefaultURL   string `yaml:"default_url"`
	DefaultRange string `yaml:"default_range"`
	DefaultList  string `yaml:"default_list"`

	Cookie           string `yaml:"cookie"`
	CookieFile       string `yaml:"cookie_file"`
	UserAgent        string `yaml:"user_agent"`
	CloudflareBypass bool   `yaml:"cloudflare_bypass"`
	Browser          bool   `yaml:"browser"`

	SkipBroken    bool    `yaml:"skip_broken"`
	MinConfidence float64 `yaml:"min_confidence"`

	ServeAddr string `yaml:"serve_addr"`

	Detect detect.Tuning `yaml:"detect"`
}

// Options carries CLI flag values. Zero values leave the profile untouched.
type Options struct {
	IgnoreConfig     bool
	Debug            bool
	Output           string
	ImageWorkers     int
	ChapterWorkers   int
	KeepFolders      bool
	CheckJS          bool
	DefaultURL       string
	DefaultRange     string
	DefaultList      string
	Cookie           string
	CookieFile       string
	UserAgent        string
	CloudflareBypass bool
	Browser          bool
	SkipBroken       bool
	MinConfidence    float64
	ServeAddr        string
}

func DefaultConfig() *Config {
	return &Config{
		Output:         ".",
		ImageWorkers:   5,
		ChapterWorkers: 2,
		AllowExt:       []string{"jpg", "jpeg", "png", "webp", "gif"},
		MinConfidence:  0.35,
		ServeAddr:      ":8080",
		Detect:         detect.DefaultTuning(),
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// loadYAML decodes a profile on top of the defaults, so a profile only needs
// the keys it changes.
func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := DefaultConfig()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadMerged returns the active profile with CLI options applied and a
// description of where it came from.
func LoadMerged(opts Options) (*Config, string, error) {
	cfg, used := DefaultConfig(), "(ignored config)"

	if !opts.IgnoreConfig {
		activePath, err := ActiveConfigPath()
		switch {
		case errors.Is(err, ErrNoConfig):
			used = "(default config in memory, run `pagedetect config init` to create one)"
		case err != nil:
			return nil, "", err
		default:
			cfg, err = loadYAML(activePath)
			if err != nil {
				return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
			}
			used = activePath
		}
	}

	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	if err := cfg.Detect.Validate(); err != nil {
		return nil, "", fmt.Errorf("config %s: detect: %w", used, err)
	}

	return cfg, used, nil
}

func mergeConfig(c *Config, o Options) {
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.ImageWorkers != 0 {
		c.ImageWorkers = o.ImageWorkers
	}
	if o.ChapterWorkers != 0 {
		c.ChapterWorkers = o.ChapterWorkers
	}
	if o.DefaultURL != "" {
		c.DefaultURL = o.DefaultURL
	}
	if o.DefaultRange != "" {
		c.DefaultRange = o.DefaultRange
	}
	if o.DefaultList != "" {
		c.DefaultList = o.DefaultList
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.MinConfidence != 0 {
		c.MinConfidence = o.MinConfidence
	}
	if o.ServeAddr != "" {
		c.ServeAddr = o.ServeAddr
	}

	c.KeepFolders = c.KeepFolders || o.KeepFolders
	c.Debug = c.Debug || o.Debug
	c.CheckJS = c.CheckJS || o.CheckJS
	c.CloudflareBypass = c.CloudflareBypass || o.CloudflareBypass
	c.Browser = c.Browser || o.Browser
	c.SkipBroken = c.SkipBroken || o.SkipBroken
}

func normalizeDefaults(c *Config) {
	if c.Output == "" {
		c.Output = "."
	}
	if c.ImageWorkers <= 0 {
		c.ImageWorkers = 5
	}
	if c.ChapterWorkers <= 0 {
		c.ChapterWorkers = 2
	}
	if c.ServeAddr == "" {
		c.ServeAddr = ":8080"
	}
	if c.Detect.IsZero() {
		c.Detect = detect.DefaultTuning()
	}
}

func (c *Config) Print(w io.Writer) {
	p := func(format string, args ...any) { _, _ = fmt.Fprintf(w, format, args...) }

	p(" -output: %s\n", c.Output)
	p(" -image_workers: %d\n", c.ImageWorkers)
	p(" -chapter_workers: %d\n", c.ChapterWorkers)
	p(" -min_confidence: %.2f\n", c.MinConfidence)
	if c.KeepFolders {
		p(" -keep_folders: %t\n", c.KeepFolders)
	}
	if c.Debug {
		p(" -debug: %t\n", c.Debug)
	}
	if c.CheckJS {
		p(" -check_js: %t\n", c.CheckJS)
	}
	if c.Browser {
		p(" -browser: %t\n", c.Browser)
	}
	if c.CloudflareBypass {
		p(" -cloudflare_bypass: %t\n", c.CloudflareBypass)
	}
	if c.DefaultURL != "" {
		p(" -url: %s\n", c.DefaultURL)
	}
	if c.DefaultRange != "" {
		p(" -range: %s\n", c.DefaultRange)
	}
	if c.DefaultList != "" {
		p(" -list: %s\n", c.DefaultList)
	}
	if c.CookieFile != "" {
		p(" -cookie_file: %s\n", c.CookieFile)
	}
	if c.SkipBroken {
		p(" -skip_broken: %t\n", c.SkipBroken)
	}
	if len(c.AllowExt) > 0 {
		p(" -allow_ext: %s\n", strings.Join(c.AllowExt, ", "))
	}
	if c.Detect != detect.DefaultTuning() {
		p(" -detect: min_page_score=%d min_group_count=%d size_bucket_step=%d (customized)\n",
			c.Detect.MinPageScore, c.Detect.MinGroupCount, c.Detect.SizeBucketStep)
	}
}
