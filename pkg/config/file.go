package config

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/battind/battind/pkg/utils/ptr"
)

// UI kinds.
const (
	UITray = "tray"
	UITUI  = "tui"
	UINone = "none"
)

// UIs lists the accepted UI kinds.
var UIs = []string{UITray, UITUI, UINone}

const DefaultStatusSocket = "/tmp/battind.sock"

var (
	defaultFileConfig = &RawFileConfig{
		Source:        ptr.To("auto"),
		UI:            ptr.To(UITray),
		StatusSocket:  ptr.To(DefaultStatusSocket),
		EnableMetrics: ptr.To(false),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

// DefaultPath returns ~/.config/battind/config.json. The XDG-style
// location is used on macOS too, instead of ~/Library/Application Support.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "battind", "config.json")
	}
	return filepath.Join(home, ".config", "battind", "config.json")
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	return &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}
}

type RawFileConfig struct {
	Source        *string `json:"source,omitempty"`
	UI            *string `json:"ui,omitempty"`
	StatusSocket  *string `json:"statusSocket,omitempty"`
	EnableMetrics *bool   `json:"enableMetrics,omitempty"`
}

func (f *File) Source() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.Source, *defaultFileConfig.Source)
}

func (f *File) UI() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.UI, *defaultFileConfig.UI)
}

func (f *File) StatusSocket() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	// An explicit empty string disables the API, so only nil falls back.
	return ptr.Deref(f.c.StatusSocket, *defaultFileConfig.StatusSocket)
}

func (f *File) EnableMetrics() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.EnableMetrics, *defaultFileConfig.EnableMetrics)
}

func (f *File) SetSource(s string) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.Source = &s
}

func (f *File) SetUI(s string) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.UI = &s
}

func (f *File) SetStatusSocket(s string) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.StatusSocket = &s
}

func (f *File) SetEnableMetrics(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.EnableMetrics = &b
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// A missing file means all defaults. Never leave f.c nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	if err := os.MkdirAll(filepath.Dir(f.filepath), 0755); err != nil {
		return pkgerrors.Wrapf(err, "failed to create directory for %s", f.filepath)
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	err = encode(fp, f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

// Raw returns a copy of the values explicitly set in the file.
func (f *File) Raw() RawFileConfig {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return RawFileConfig{}
	}
	return *f.c
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	return logrus.Fields{
		"source":        f.Source(),
		"ui":            f.UI(),
		"statusSocket":  f.StatusSocket(),
		"enableMetrics": f.EnableMetrics(),
	}
}

func encode(w io.Writer, c *RawFileConfig) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
