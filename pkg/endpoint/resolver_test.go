package endpoint_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/flagsnap/pkg/endpoint"
	"github.com/papercomputeco/flagsnap/pkg/feed"
)

const appcast = `<rss xmlns:sparkle="http://www.andymatuschak.org/xml-namespaces/sparkle"><channel>
<item>
  <sparkle:version>52118</sparkle:version>
  <sparkle:shortVersionString>1.4.2</sparkle:shortVersionString>
  <enclosure url="https://example.com/p.delta" sparkle:deltaFrom="52000"/>
  <enclosure url="https://example.com/Dia.zip"/>
</item>
</channel></rss>`

// countingFetcher records how often it was asked for a feed.
type countingFetcher struct {
	calls int
	body  string
	err   error
}

func (f *countingFetcher) Fetch(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.body, f.err
}

var _ = Describe("Resolver", func() {
	var (
		static   *endpoint.Descriptor
		identity endpoint.Identity
		server   *httptest.Server
	)

	BeforeEach(func() {
		static = &endpoint.Descriptor{
			URL:        "https://static.example.com/stream",
			AuthHeader: "static-auth",
		}
		identity = endpoint.Identity{
			UserKey:     "u",
			DeviceKey:   "d",
			DeviceModel: "Mac15,3",
			AppKey:      "a",
		}
	})

	AfterEach(func() {
		if server != nil {
			server.Close()
			server = nil
		}
	})

	dynamicConfig := func(feedURL string) endpoint.Config {
		return endpoint.Config{
			Mode:     endpoint.ModeDynamic,
			FeedURL:  feedURL,
			BaseURL:  "https://stream.example.com/meval/",
			Identity: identity,
		}
	}

	Context("static selection", func() {
		It("returns the static descriptor without fetching in static mode", func() {
			f := &countingFetcher{}
			r := endpoint.NewResolver(f)

			desc, err := r.Resolve(context.Background(), endpoint.Config{Mode: endpoint.ModeStatic, Static: static})
			Expect(err).NotTo(HaveOccurred())
			Expect(desc).To(Equal(static))
			Expect(f.calls).To(BeZero())
		})

		It("prefers the static descriptor in auto mode", func() {
			f := &countingFetcher{}
			r := endpoint.NewResolver(f)

			cfg := dynamicConfig("https://feed.example.com/appcast.xml")
			cfg.Mode = endpoint.ModeAuto
			cfg.Static = static

			desc, err := r.Resolve(context.Background(), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(desc).To(Equal(static))
			Expect(f.calls).To(BeZero())
		})

		It("fails static mode without a static descriptor", func() {
			r := endpoint.NewResolver(&countingFetcher{})

			_, err := r.Resolve(context.Background(), endpoint.Config{Mode: endpoint.ModeStatic})

			var cerr *endpoint.ConfigurationError
			Expect(errors.As(err, &cerr)).To(BeTrue())
		})
	})

	Context("dynamic derivation", func() {
		It("derives the tag header from the feed", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(appcast))
			}))
			r := endpoint.NewResolver(feed.NewFetcher())

			desc, err := r.Resolve(context.Background(), dynamicConfig(server.URL))
			Expect(err).NotTo(HaveOccurred())
			Expect(desc.TagsHeader).To(Equal(
				"application-id/company.thebrowser.dia application-name/Dia application-version/52118 application-version-name/1.4.2",
			))
			Expect(desc.URL).To(HavePrefix("https://stream.example.com/meval/"))
		})

		It("derives in auto mode when no static descriptor exists", func() {
			f := &countingFetcher{body: appcast}
			r := endpoint.NewResolver(f, endpoint.WithClock(func() time.Time { return time.UnixMilli(1) }))

			cfg := dynamicConfig("https://feed.example.com/appcast.xml")
			cfg.Mode = endpoint.ModeAuto

			desc, err := r.Resolve(context.Background(), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.calls).To(Equal(1))
			Expect(desc.URL).NotTo(Equal(static.URL))
		})

		It("reports every missing secret", func() {
			r := endpoint.NewResolver(&countingFetcher{})

			cfg := endpoint.Config{Mode: endpoint.ModeDynamic, Static: static}
			_, err := r.Resolve(context.Background(), cfg)

			var cerr *endpoint.ConfigurationError
			Expect(errors.As(err, &cerr)).To(BeTrue())
			Expect(cerr.Missing).To(ConsistOf(
				"feed url", "user key", "device key", "device model", "app key", "base url",
			))
		})

		It("does not fall back when secrets are missing", func() {
			f := &countingFetcher{}
			r := endpoint.NewResolver(f)

			cfg := dynamicConfig("https://feed.example.com/appcast.xml")
			cfg.Identity.AppKey = ""
			cfg.Static = static

			desc, err := r.Resolve(context.Background(), cfg)
			Expect(err).To(HaveOccurred())
			Expect(desc).To(BeNil())
			Expect(f.calls).To(BeZero())
		})
	})

	Context("fallback", func() {
		It("falls back to the static descriptor when the feed is unreachable", func() {
			r := endpoint.NewResolver(feed.NewFetcher(feed.WithTimeout(time.Second)))

			cfg := dynamicConfig("http://127.0.0.1:1/appcast.xml")
			cfg.Static = static

			desc, err := r.Resolve(context.Background(), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(desc).To(Equal(static))
		})

		It("falls back when the feed cannot be parsed", func() {
			r := endpoint.NewResolver(&countingFetcher{body: "<rss><channel/></rss>"})

			cfg := dynamicConfig("https://feed.example.com/appcast.xml")
			cfg.Static = static

			desc, err := r.Resolve(context.Background(), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(desc).To(Equal(static))
		})

		It("fails with a network error when the feed times out and no static descriptor exists", func() {
			release := make(chan struct{})
			server = httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				select {
				case <-release:
				case <-r.Context().Done():
				}
			}))
			defer close(release)

			r := endpoint.NewResolver(feed.NewFetcher(feed.WithTimeout(50 * time.Millisecond)))

			_, err := r.Resolve(context.Background(), dynamicConfig(server.URL))

			var rerr *endpoint.ResolutionError
			Expect(errors.As(err, &rerr)).To(BeTrue())

			var nerr *feed.NetworkError
			Expect(errors.As(err, &nerr)).To(BeTrue())
			Expect(nerr.Timeout).To(BeTrue())
		})

		It("surfaces parse errors when no static descriptor exists", func() {
			r := endpoint.NewResolver(&countingFetcher{body: "<rss/>"})

			_, err := r.Resolve(context.Background(), dynamicConfig("https://feed.example.com/appcast.xml"))

			var perr *feed.ParseError
			Expect(errors.As(err, &perr)).To(BeTrue())
		})
	})
})

var _ = Describe("ParseMode", func() {
	It("defaults to auto", func() {
		m, err := endpoint.ParseMode("")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(endpoint.ModeAuto))
	})

	It("is case insensitive", func() {
		m, err := endpoint.ParseMode("Dynamic")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(endpoint.ModeDynamic))
	})

	It("rejects unknown modes", func() {
		_, err := endpoint.ParseMode("sometimes")
		Expect(err).To(HaveOccurred())
	})
})
