// Package config loads and hot-reloads FEP's structured configuration
// document (spec.md §6), and adapts it into the engine's internal types.
//
// The teacher parses JSON config inline in main.go from env vars
// (cmd/server/main.go). FEP needs the richer structured document spec.md §6
// describes, so it follows the project's own gopkg.in/yaml.v3 dependency
// (already used for struct tags in internal/ratelimit.LimitConfig) instead.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/technosupport/fep/internal/rules"
)

// Document is the raw YAML shape of the configuration file (spec.md §6).
type Document struct {
	MQTT struct {
		Host        string `yaml:"host"`
		Port        int    `yaml:"port"`
		ListenTopic string `yaml:"listen_topic"`
		AlertTopic  string `yaml:"alert_topic"`
		// QueueGroup names the NATS queue group the ingress subscriber joins
		// (spec.md §6). Defaults to "fepd-admission" so two fepd processes
		// started during a restart never both dispatch the same frame.
		QueueGroup string `yaml:"queue_group"`
	} `yaml:"mqtt"`

	Frigate struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		SSL  bool   `yaml:"ssl"`
		// ConfirmViaHTTP enables the optional absolute artifact
		// confirmation described in spec.md §4.7.
		ConfirmViaHTTP bool `yaml:"confirm_via_http"`
	} `yaml:"frigate"`

	Alerts []AlertRule `yaml:"alerts"`

	AlertRules struct {
		MinEventDuration string `yaml:"min_event_duration"`
		MaxEventDuration string `yaml:"max_event_duration"`
		Snapshot         bool   `yaml:"snapshot"`
		Video            bool   `yaml:"video"`
		MinScore         float64 `yaml:"min_score"`
		Cooldown         struct {
			Camera string `yaml:"camera"`
			Label  string `yaml:"label"`
		} `yaml:"cooldown"`
	} `yaml:"alert_rules"`

	ObjectTracking struct {
		Enabled   bool    `yaml:"enabled"`
		Threshold float64 `yaml:"threshold"`
	} `yaml:"object_tracking"`

	Logging struct {
		Level   string `yaml:"level"`
		Path    string `yaml:"path"`
		MaxKeep int    `yaml:"max-keep"`
	} `yaml:"logging"`

	Redis struct {
		Addr string `yaml:"addr"`
	} `yaml:"redis"`

	Admin struct {
		Addr         string `yaml:"addr"`
		TokenHash    string `yaml:"token_hash"`
		RateLimit    int    `yaml:"rate_limit_per_minute"`
	} `yaml:"admin"`
}

// AlertRule is one alerts[] entry.
type AlertRule struct {
	Camera  string      `yaml:"camera"`
	Enabled *bool       `yaml:"enabled"`
	Labels  []string    `yaml:"labels"`
	Zones   ZonesConfig `yaml:"zones"`
	// Cooldown optionally overrides alert_rules.cooldown.label for this
	// camera (supplemented feature, see SPEC_FULL.md).
	Cooldown string `yaml:"cooldown"`
}

// ZonesConfig is the require/ignore zone table for one camera rule.
type ZonesConfig struct {
	Require []ZoneEntry `yaml:"require"`
	Ignore  []ZoneEntry `yaml:"ignore"`
}

// ZoneEntry is one zones.require/zones.ignore entry.
type ZoneEntry struct {
	Zone   string   `yaml:"zone"`
	Labels []string `yaml:"labels"`
}

// Config is the parsed, validated, duration-resolved configuration.
type Config struct {
	raw Document

	MQTTHost        string
	MQTTPort        int
	ListenTopic     string
	ListenQueueGroup string
	AlertTopic      string

	FrigateHost           string
	FrigatePort           int
	FrigateSSL            bool
	ConfirmArtifactViaHTTP bool

	RedisAddr string

	AdminAddr      string
	AdminTokenHash string
	AdminRateLimit int

	LogLevel   string
	LogPath    string
	LogMaxKeep int

	ruleSet rules.RuleSet
}

// Load reads, parses, and validates the configuration document at path.
// Per spec.md §6, config-parse failure is fatal at startup.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a Config from raw YAML bytes (split out from Load so tests
// can parse in-memory documents).
func Parse(data []byte) (*Config, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return fromDocument(doc)
}

func fromDocument(doc Document) (*Config, error) {
	if doc.MQTT.Host == "" || doc.MQTT.ListenTopic == "" || doc.MQTT.AlertTopic == "" {
		return nil, fmt.Errorf("mqtt.host, mqtt.listen_topic and mqtt.alert_topic are required")
	}

	minDur, err := parseDuration(doc.AlertRules.MinEventDuration)
	if err != nil {
		return nil, fmt.Errorf("alert_rules.min_event_duration: %w", err)
	}
	maxDur, err := parseDuration(doc.AlertRules.MaxEventDuration)
	if err != nil {
		return nil, fmt.Errorf("alert_rules.max_event_duration: %w", err)
	}
	camCooldown, err := parseDuration(doc.AlertRules.Cooldown.Camera)
	if err != nil {
		return nil, fmt.Errorf("alert_rules.cooldown.camera: %w", err)
	}
	labelCooldown, err := parseDuration(doc.AlertRules.Cooldown.Label)
	if err != nil {
		return nil, fmt.Errorf("alert_rules.cooldown.label: %w", err)
	}

	cameras := make([]rules.CameraRule, 0, len(doc.Alerts))
	for _, a := range doc.Alerts {
		enabled := true
		if a.Enabled != nil {
			enabled = *a.Enabled
		}
		perCameraCooldown, err := parseDuration(a.Cooldown)
		if err != nil {
			return nil, fmt.Errorf("alerts[%s].cooldown: %w", a.Camera, err)
		}
		cameras = append(cameras, rules.CameraRule{
			Camera:   a.Camera,
			Enabled:  enabled,
			Labels:   a.Labels,
			Require:  toZoneRules(a.Zones.Require),
			Ignore:   toZoneRules(a.Zones.Ignore),
			Cooldown: perCameraCooldown,
		})
	}

	queueGroup := doc.MQTT.QueueGroup
	if queueGroup == "" {
		queueGroup = "fepd-admission"
	}

	cfg := &Config{
		raw:         doc,
		MQTTHost:    doc.MQTT.Host,
		MQTTPort:    doc.MQTT.Port,
		ListenTopic: doc.MQTT.ListenTopic,
		ListenQueueGroup: queueGroup,
		AlertTopic:  doc.MQTT.AlertTopic,

		FrigateHost:            doc.Frigate.Host,
		FrigatePort:            doc.Frigate.Port,
		FrigateSSL:             doc.Frigate.SSL,
		ConfirmArtifactViaHTTP: doc.Frigate.ConfirmViaHTTP,

		RedisAddr: doc.Redis.Addr,

		AdminAddr:      doc.Admin.Addr,
		AdminTokenHash: doc.Admin.TokenHash,
		AdminRateLimit: doc.Admin.RateLimit,

		LogLevel:   doc.Logging.Level,
		LogPath:    doc.Logging.Path,
		LogMaxKeep: doc.Logging.MaxKeep,

		ruleSet: rules.RuleSet{
			Cameras: cameras,
			Thresholds: rules.Thresholds{
				MinEventDuration: minDur,
				MaxEventDuration: maxDur,
				RequireSnapshot:  doc.AlertRules.Snapshot,
				RequireVideo:     doc.AlertRules.Video,
				CooldownCamera:   camCooldown,
				CooldownLabel:    labelCooldown,
				MinScore:         doc.AlertRules.MinScore,
			},
			Tracking: rules.Tracking{
				Enabled:   doc.ObjectTracking.Enabled,
				Threshold: doc.ObjectTracking.Threshold,
			},
		},
	}
	return cfg, nil
}

func toZoneRules(entries []ZoneEntry) []rules.ZoneRule {
	out := make([]rules.ZoneRule, 0, len(entries))
	for _, e := range entries {
		out = append(out, rules.ZoneRule{Zone: e.Zone, Labels: e.Labels})
	}
	return out
}

// RuleSet returns the Rule Evaluator's static input, adapted from the
// alerts[]/alert_rules/object_tracking configuration sections.
func (c *Config) RuleSet() rules.RuleSet {
	return c.ruleSet
}

// parseDuration accepts the empty string (meaning "0 / disabled") plus any
// Go duration accepted by time.ParseDuration, which already covers the s/m/h
// suffixes spec.md §6 requires.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
