package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"path/filepath"
	"text/template"

	cmtconfig "github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/libs/os"
	"github.com/spf13/viper"
)

// DefaultDirPerm is the default permissions used when creating directories.
const DefaultDirPerm = 0o700

const (
	CometConfigFile = "config.toml"
	AppConfigFile   = "app.toml"
)

var appTemplate *template.Template

func init() {
	var err error
	if appTemplate, err = template.New("appConfigFileTemplate").Parse(defaultAppTemplate); err != nil {
		panic(err)
	}
}

// WriteConfigFiles renders config.toml and app.toml under the config directory.
func WriteConfigFiles(config *Config) error {
	dir := filepath.Join(config.RootDir, "config")
	if err := os.EnsureDir(dir, DefaultDirPerm); err != nil {
		return err
	}
	cmtconfig.WriteConfigFile(filepath.Join(dir, CometConfigFile), config.Config)

	var buffer bytes.Buffer
	if err := appTemplate.Execute(&buffer, config); err != nil {
		return err
	}
	os.MustWriteFile(filepath.Join(dir, AppConfigFile), buffer.Bytes(), 0o644)
	return nil
}

// Load reads config.toml and, when present, app.toml from home into a config
// seeded with the defaults.
func Load(home string) (*Config, error) {
	config := NewGovConfig(home)
	v := viper.New()
	v.SetConfigFile(filepath.Join(config.RootDir, "config", CometConfigFile))
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	appFile := filepath.Join(config.RootDir, "config", AppConfigFile)
	if os.FileExists(appFile) {
		v.SetConfigFile(appFile)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("reading app config: %w", err)
		}
	}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	config.SetRoot(config.RootDir)
	config.App.Home = config.RootDir
	if err := config.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid configuration data: %w", err)
	}
	return config, nil
}

//go:embed app.toml.tpl
var defaultAppTemplate string
