package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	ForbidRuntimeChange uint8 = 1 << iota
	NeedResetInterval
	NeedUpdateListRate
)

const (
	defaultFolderName   = "Root"
	defaultPollInterval = 5 * time.Second
)

type Config struct {
	Source            string        `yaml:"Source"`
	FolderID          string        `yaml:"FolderID"`
	FolderName        string        `yaml:"FolderName"`
	PollInterval      time.Duration `yaml:"PollInterval"`
	ListConcurrency   int           `yaml:"ListConcurrency"`
	ListRate          string        `yaml:"ListRate"`
	SnapshotStore     string        `yaml:"SnapshotStore"`
	SnapshotDir       string        `yaml:"SnapshotDir"`
	MaxSnapshotSize   string        `yaml:"MaxSnapshotSize"`
	HistorySize       int           `yaml:"HistorySize"`
	Notifier          string        `yaml:"Notifier"`
	DiskBase          string        `yaml:"DiskBase"`
	GoogleRedirectURI string        `yaml:"GoogleRedirectURI"`
	DiscordChannelID  string        `yaml:"DiscordChannelID"`

	//secrets are read from the file or the environment but never written back
	GoogleClientID     string `yaml:"-" json:"-"`
	GoogleClientSecret string `yaml:"-" json:"-"`
	GoogleRefreshToken string `yaml:"-" json:"-"`
	DropboxToken       string `yaml:"-" json:"-"`
	DiscordBotToken    string `yaml:"-" json:"-"`
}

//envBindings keeps the variable names of the .env files already in use
var envBindings = map[string]string{
	"FolderID":           "FOLDER_ID",
	"GoogleClientID":     "GOOGLE_CLIENT_ID",
	"GoogleClientSecret": "GOOGLE_CLIENT_SECRET",
	"GoogleRedirectURI":  "GOOGLE_REDIRECT_URI",
	"GoogleRefreshToken": "GOOGLE_REFRESH_TOKEN",
	"DropboxToken":       "DROPBOX_TOKEN",
	"DiscordBotToken":    "DISCORD_BOT_TOKEN",
	"DiscordChannelID":   "DISCORD_CHANNEL_ID",
}

func InitConf(specPath string) (*Config, error) {

	viper.SetConfigName("folderwatch")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/folderwatch/")
	viper.AddConfigPath("$HOME/.folderwatch")
	viper.AddConfigPath(".")

	viper.SetDefault("Source", "drive")
	viper.SetDefault("FolderName", defaultFolderName)
	viper.SetDefault("PollInterval", defaultPollInterval)
	viper.SetDefault("ListConcurrency", 4)
	viper.SetDefault("ListRate", "unlimited")
	viper.SetDefault("SnapshotStore", "file")
	viper.SetDefault("SnapshotDir", ".")
	viper.SetDefault("MaxSnapshotSize", "50MB")
	viper.SetDefault("HistorySize", 100)
	viper.SetDefault("Notifier", "discord")

	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	// user specific config path
	if stat, err := os.Stat(specPath); stat != nil && err == nil {
		viper.SetConfigFile(specPath)
	}

	configExists := true
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			configExists = false
			if specPath == "" {
				specPath = "./folderwatch.yaml"
			}
			viper.SetConfigFile(specPath)
		} else {
			return nil, err
		}
	}

	c, err := loadConf()
	if err != nil {
		return nil, err
	}

	cf := viper.ConfigFileUsed()
	log.Println("[config] selected config file: ", cf)
	if !configExists {
		if err := c.WriteYaml(); err != nil {
			log.Println("[config] failed to write config file: ", err)
		} else {
			log.Println("[config] config file written: ", cf)
		}
	}

	return c, nil
}

func loadConf() (*Config, error) {
	c := &Config{}
	if err := viper.Unmarshal(c); err != nil {
		return nil, err
	}
	if err := c.Normalize(); err != nil {
		return nil, err
	}
	return c, nil
}

// WatchConf calls fn with the re-read configuration whenever the config
// file changes on disk.
func WatchConf(fn func(*Config)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Println("[config] changed: ", e.Name, e.Op)
		c, err := loadConf()
		if err != nil {
			log.Println("[config] reload failed: ", err)
			return
		}
		fn(c)
	})
	viper.WatchConfig()
}

// Normalize fills empty values and makes directories absolute.
func (c *Config) Normalize() error {
	if c.FolderName == "" {
		c.FolderName = defaultFolderName
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	for _, dir := range []*string{&c.SnapshotDir, &c.DiskBase} {
		if *dir == "" {
			continue
		}
		abs, err := filepath.Abs(*dir)
		if err != nil {
			return fmt.Errorf("invalid path %s: %w", *dir, err)
		}
		*dir = abs
	}
	switch c.Source {
	case "drive", "dropbox", "disk":
	default:
		return fmt.Errorf("unknown source %q (want drive, dropbox or disk)", c.Source)
	}
	return nil
}

// Validate reports what applying nc on a running engine would need.
func (c *Config) Validate(nc *Config) uint8 {

	var status uint8

	if c.PollInterval != nc.PollInterval {
		status |= NeedResetInterval
	}
	if c.ListRate != nc.ListRate {
		status |= NeedUpdateListRate
	}

	rfc := reflect.ValueOf(c)
	rfnc := reflect.ValueOf(nc)

	//changing what is watched or where snapshots live invalidates the snapshot
	for _, field := range []string{"Source", "FolderID", "FolderName",
		"SnapshotStore", "SnapshotDir", "MaxSnapshotSize", "DiskBase",
		"Notifier", "DiscordChannelID", "ListConcurrency"} {

		cval := reflect.Indirect(rfc).FieldByName(field)
		ncval := reflect.Indirect(rfnc).FieldByName(field)

		if cval.Interface() != ncval.Interface() {
			status |= ForbidRuntimeChange
			break
		}
	}

	return status
}

// SnapshotLimit is the largest snapshot the store will load.
func (c *Config) SnapshotLimit() (datasize.ByteSize, error) {
	return maxSnapshotSize(c.MaxSnapshotSize)
}

func (c *Config) WriteYaml() error {
	cf := viper.ConfigFileUsed()
	d, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(cf, d, 0600)
}
