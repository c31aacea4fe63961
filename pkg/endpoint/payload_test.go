package endpoint_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/flagsnap/pkg/endpoint"
	"github.com/papercomputeco/flagsnap/pkg/feed"
)

var _ = Describe("PseudoVersion", func() {
	DescribeTable("concatenates up to three components",
		func(in, want string) {
			Expect(endpoint.PseudoVersion(in)).To(Equal(want))
		},
		Entry("full version", "1.4.2", "142"),
		Entry("two components", "1.4", "140"),
		Entry("one component", "3", "300"),
		Entry("extra components are dropped", "1.2.3.4", "123"),
		Entry("multi-digit components", "1.12.30", "11230"),
		Entry("non-numeric component", "1.x.2", "102"),
		Entry("empty version", "", "000"),
	)
})

var _ = Describe("TagsHeader", func() {
	It("emits the four tags in fixed order", func() {
		info := &feed.BuildInfo{BuildNumber: "52118", ShortVersion: "1.4.2"}
		Expect(endpoint.TagsHeader(info)).To(Equal(
			"application-id/company.thebrowser.dia application-name/Dia application-version/52118 application-version-name/1.4.2",
		))
	})
})

var _ = Describe("Derive", func() {
	var (
		info *feed.BuildInfo
		id   endpoint.Identity
		now  time.Time
	)

	BeforeEach(func() {
		info = &feed.BuildInfo{BuildNumber: "52118", ShortVersion: "1.4.2"}
		id = endpoint.Identity{
			UserKey:     "user-1",
			DeviceKey:   "device-1",
			DeviceModel: "Mac15,3",
			AppKey:      "app-1",
		}
		now = time.UnixMilli(1760000000000)
	})

	decodePayload := func(desc *endpoint.Descriptor, base string) map[string]any {
		Expect(strings.HasPrefix(desc.URL, base)).To(BeTrue())
		raw, err := base64.URLEncoding.DecodeString(strings.TrimPrefix(desc.URL, base))
		Expect(err).NotTo(HaveOccurred())

		var payload map[string]any
		Expect(json.Unmarshal(raw, &payload)).To(Succeed())
		return payload
	}

	It("encodes the context payload into the url", func() {
		desc, err := endpoint.Derive(info, id, "https://stream.example.com/meval/", "sdk-key", now)
		Expect(err).NotTo(HaveOccurred())
		Expect(desc.AuthHeader).To(Equal("sdk-key"))

		payload := decodePayload(desc, "https://stream.example.com/meval/")
		Expect(payload["kind"]).To(Equal("multi"))

		user := payload["user"].(map[string]any)
		Expect(user["key"]).To(Equal("user-1"))
		Expect(user["buildNumber"]).To(BeNumerically("==", 52118))
		Expect(user["version"]).To(Equal("142"))
		Expect(user["timestamp"]).To(BeNumerically("==", 1760000000000))

		app := payload["ld_application"].(map[string]any)
		Expect(app["key"]).To(Equal("app-1"))
		Expect(app["id"]).To(Equal(endpoint.AppID))
		Expect(app["name"]).To(Equal(endpoint.AppName))
		Expect(app["version"]).To(Equal("52118"))
		Expect(app["versionName"]).To(Equal("1.4.2"))

		device := payload["ld_device"].(map[string]any)
		Expect(device["key"]).To(Equal("device-1"))
		Expect(device["model"]).To(Equal("Mac15,3"))
		Expect(device["manufacturer"]).To(Equal("Apple"))
	})

	It("sends build number 1 when the feed value is not numeric", func() {
		info.BuildNumber = "beta"
		desc, err := endpoint.Derive(info, id, "https://stream.example.com/", "", now)
		Expect(err).NotTo(HaveOccurred())

		user := decodePayload(desc, "https://stream.example.com/")["user"].(map[string]any)
		Expect(user["buildNumber"]).To(BeNumerically("==", 1))
	})

	It("is deterministic for a fixed clock", func() {
		a, err := endpoint.Derive(info, id, "https://stream.example.com/", "", now)
		Expect(err).NotTo(HaveOccurred())
		b, err := endpoint.Derive(info, id, "https://stream.example.com/", "", now)
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(b))
	})
})
