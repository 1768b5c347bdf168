// Package config loads a node's YAML configuration file, the way the
// forwarder's cmd package loads its own config via toolutils.ReadYaml
// (fw/cmd/cmd.go), but using goccy/go-yaml directly since toolutils'
// helper isn't part of this module.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Config is a node's full on-disk configuration.
type Config struct {
	Node  NodeConfig  `yaml:"node"`
	Faces FacesConfig `yaml:"faces"`
	Mgmt  MgmtConfig  `yaml:"mgmt"`
	Repo  RepoConfig  `yaml:"repo"`
}

// NodeConfig holds forwarding-engine tunables, mirroring fwengine.Config.
type NodeConfig struct {
	LogLevel              string        `yaml:"log_level"`
	DeliverInterestsToApp bool          `yaml:"deliver_interests_to_app"`
	SessionIdentifierTag  string        `yaml:"session_identifier_tag"`
	SessionInitiatorTag   string        `yaml:"session_initiator_tag"`
	ReconnectComponent    string        `yaml:"reconnect_component"`
	AgeingInterval        time.Duration `yaml:"ageing_interval"`
	PitTimeout            time.Duration `yaml:"pit_timeout"`
	PitRetransmits        int           `yaml:"pit_retransmits"`
	CsCapacity            int           `yaml:"cs_capacity"`
	CsTTL                 time.Duration `yaml:"cs_ttl"`
	CsBackend             string        `yaml:"cs_backend"` // "memory" or "badger"
	CsBadgerPath          string        `yaml:"cs_badger_path"`
	FaceTableCapacity     int           `yaml:"face_table_capacity"`
}

// FacesConfig lists the listeners a node stands up at startup.
type FacesConfig struct {
	UnixSocket   string `yaml:"unix_socket"`
	TCPListen    string `yaml:"tcp_listen"`
	WebSocket    string `yaml:"web_socket"`
	WebTransport string `yaml:"web_transport"`
}

// MgmtConfig configures the management surface (§6.4).
type MgmtConfig struct {
	Listen string `yaml:"listen"`
}

// RepoConfig configures the built-in repository application.
type RepoConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Prefix     string `yaml:"prefix"`
	SqlitePath string `yaml:"sqlite_path"`
}

// Default returns a Config populated with the same defaults
// fwengine.DefaultConfig provides, for a node started without a config
// file.
func Default() Config {
	return Config{
		Node: NodeConfig{
			LogLevel:              "info",
			DeliverInterestsToApp: true,
			SessionIdentifierTag:  "sid",
			SessionInitiatorTag:   "session_connector",
			ReconnectComponent:    "reconnect",
			AgeingInterval:        time.Second,
			PitTimeout:            4 * time.Second,
			PitRetransmits:        3,
			CsCapacity:            65536,
			CsTTL:                 10 * time.Minute,
			CsBackend:             "memory",
			FaceTableCapacity:     10_000,
		},
		Mgmt: MgmtConfig{Listen: "127.0.0.1:9696"},
	}
}

// Load reads and parses the YAML config file at path, starting from
// Default() so an omitted field keeps its default value.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}
