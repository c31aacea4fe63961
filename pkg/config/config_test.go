package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/flagsnap/pkg/config"
)

var _ = Describe("Configer config", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	writeConfig := func(data string) {
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())
	}

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.NewDefaultConfig()))
		})

		It("loads all config fields", func() {
			writeConfig(`version = 0

[endpoint]
mode = "dynamic"
url = "https://stream.example.com/sdk"
auth = "sdk-123"
tags = "application-id/test"

[feed]
url = "https://releases.example.com/appcast.xml"
timeout = "10s"

[identity]
user_key = "user"
device_key = "device"
device_model = "Mac15,3"
app_key = "app"
base_url = "https://clientstream.example.com/eval/"

[output]
dir = "/tmp/flags"
timestamped = false
canonical = true
filtered = true

[parser]
string_aware = false

[storage]
sqlite_path = "/tmp/flagsnap.sqlite"
postgres_dsn = "postgres://localhost/flagsnap"

[events]
kafka_brokers = ["k1:9092", "k2:9092"]
kafka_topic = "flags"
`)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Endpoint).To(Equal(config.EndpointConfig{
				Mode: "dynamic",
				URL:  "https://stream.example.com/sdk",
				Auth: "sdk-123",
				Tags: "application-id/test",
			}))
			Expect(cfg.Feed.URL).To(Equal("https://releases.example.com/appcast.xml"))
			Expect(cfg.Feed.Timeout).To(Equal("10s"))
			Expect(cfg.Identity.UserKey).To(Equal("user"))
			Expect(cfg.Identity.DeviceKey).To(Equal("device"))
			Expect(cfg.Identity.DeviceModel).To(Equal("Mac15,3"))
			Expect(cfg.Identity.AppKey).To(Equal("app"))
			Expect(cfg.Identity.BaseURL).To(Equal("https://clientstream.example.com/eval/"))
			Expect(cfg.Output).To(Equal(config.OutputConfig{
				Dir:         "/tmp/flags",
				Timestamped: false,
				Canonical:   true,
				Filtered:    true,
			}))
			Expect(cfg.Parser.StringAware).To(BeFalse())
			Expect(cfg.Storage.SQLitePath).To(Equal("/tmp/flagsnap.sqlite"))
			Expect(cfg.Storage.PostgresDSN).To(Equal("postgres://localhost/flagsnap"))
			Expect(cfg.Events.KafkaBrokers).To(Equal([]string{"k1:9092", "k2:9092"}))
			Expect(cfg.Events.KafkaTopic).To(Equal("flags"))
		})

		It("fills in defaults for unset fields in a partial config", func() {
			writeConfig(`[feed]
url = "https://releases.example.com/appcast.xml"
`)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())

			defaults := config.NewDefaultConfig()
			Expect(cfg.Feed.URL).To(Equal("https://releases.example.com/appcast.xml"))
			Expect(cfg.Feed.Timeout).To(Equal(defaults.Feed.Timeout))
			Expect(cfg.Endpoint.Mode).To(Equal(defaults.Endpoint.Mode))
			Expect(cfg.Output).To(Equal(defaults.Output))
			Expect(cfg.Parser.StringAware).To(BeTrue())
			Expect(cfg.Events.KafkaTopic).To(Equal(defaults.Events.KafkaTopic))
		})

		It("normalizes the endpoint mode", func() {
			writeConfig(`[endpoint]
mode = "Static"
`)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Endpoint.Mode).To(Equal("static"))
		})

		It("rejects an unknown endpoint mode", func() {
			writeConfig(`[endpoint]
mode = "sometimes"
`)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(cfg).To(BeNil())
		})

		It("returns error for malformed TOML", func() {
			writeConfig("not valid toml [[[")

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(cfg).To(BeNil())
		})

		It("returns error for unsupported config version", func() {
			writeConfig("version = 99\n")

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported config version"))
			Expect(cfg).To(BeNil())
		})
	})

	Describe("SaveConfig", func() {
		It("persists config to disk with owner-only permissions", func() {
			cfg := config.NewDefaultConfig()
			cfg.Identity.UserKey = "secret"
			cfg.Output.Canonical = false

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SaveConfig(cfg)).To(Succeed())

			info, err := os.Stat(filepath.Join(tmpDir, "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Identity.UserKey).To(Equal("secret"))
			Expect(loaded.Output.Canonical).To(BeFalse())
		})

		It("returns error for nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SaveConfig(nil)).NotTo(Succeed())
		})
	})

	Describe("SetConfigValue", func() {
		It("sets a string config key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("feed.url", "https://releases.example.com/appcast.xml")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Feed.URL).To(Equal("https://releases.example.com/appcast.xml"))
		})

		It("sets a bool config key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("output.filtered", "true")).To(Succeed())
			Expect(c.SetConfigValue("parser.string_aware", "false")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Output.Filtered).To(BeTrue())
			Expect(cfg.Parser.StringAware).To(BeFalse())
		})

		It("splits kafka brokers", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("events.kafka_brokers", "k1:9092, k2:9092,")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Events.KafkaBrokers).To(Equal([]string{"k1:9092", "k2:9092"}))

			val, err := c.GetConfigValue("events.kafka_brokers")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("k1:9092,k2:9092"))
		})

		DescribeTable("rejects invalid values",
			func(key, value string) {
				c, err := config.NewConfiger(tmpDir)
				Expect(err).NotTo(HaveOccurred())

				err = c.SetConfigValue(key, value)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("invalid value"))
			},
			Entry("bool", "output.canonical", "maybe"),
			Entry("duration", "feed.timeout", "soon"),
			Entry("negative duration", "feed.timeout", "-1s"),
			Entry("mode", "endpoint.mode", "sometimes"),
		)

		It("returns error for unknown key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("nonexistent_key", "value")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown config key"))
		})

		It("preserves existing values when setting a new key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("identity.user_key", "user")).To(Succeed())
			Expect(c.SetConfigValue("identity.device_key", "device")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Identity.UserKey).To(Equal("user"))
			Expect(cfg.Identity.DeviceKey).To(Equal("device"))
		})
	})

	Describe("GetConfigValue", func() {
		It("returns default value when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("feed.timeout")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("30s"))

			val, err = c.GetConfigValue("output.canonical")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("true"))
		})

		It("returns empty string for key with no default", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("identity.app_key")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(BeEmpty())
		})

		It("returns error for unknown key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.GetConfigValue("proxy.upstream")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ValidConfigKeys", func() {
		It("returns every key in section order", func() {
			keys := config.ValidConfigKeys()
			Expect(keys).To(HaveLen(20))
			Expect(keys[0]).To(Equal("endpoint.mode"))
			Expect(keys[len(keys)-1]).To(Equal("events.kafka_topic"))
			for _, k := range keys {
				Expect(config.IsValidConfigKey(k)).To(BeTrue(), k)
			}
		})
	})

	Describe("IsSecretKey", func() {
		It("flags credentials", func() {
			Expect(config.IsSecretKey("identity.user_key")).To(BeTrue())
			Expect(config.IsSecretKey("storage.postgres_dsn")).To(BeTrue())
			Expect(config.IsSecretKey("feed.url")).To(BeFalse())
		})
	})
})

var _ = Describe("ParseConfigTOML", func() {
	It("returns empty config for empty input", func() {
		cfg, err := config.ParseConfigTOML([]byte(""))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(&config.Config{}))
	})

	It("rejects unsupported config version", func() {
		_, err := config.ParseConfigTOML([]byte("version = 5\n"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("SplitList", func() {
	It("flattens comma separated entries", func() {
		Expect(config.SplitList([]string{"a,b", " c ", "", "d,,"})).To(Equal([]string{"a", "b", "c", "d"}))
	})

	It("returns nil for no entries", func() {
		Expect(config.SplitList(nil)).To(BeNil())
	})
})
