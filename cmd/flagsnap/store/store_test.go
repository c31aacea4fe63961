package store_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/flagsnap/cmd/flagsnap/store"
	"github.com/papercomputeco/flagsnap/pkg/logger"
)

var _ = Describe("ResolveSQLitePath", func() {
	var origCwd string

	BeforeEach(func() {
		var err error
		origCwd, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		GinkgoT().Setenv("XDG_DATA_HOME", "")
	})

	AfterEach(func() {
		Expect(os.Chdir(origCwd)).To(Succeed())
	})

	It("prefers the override", func() {
		path, err := store.ResolveSQLitePath("/tmp/custom.db")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/tmp/custom.db"))
	})

	It("resolves ~/.flagsnap/history.db when present", func() {
		homeDir := GinkgoT().TempDir()
		cwd := GinkgoT().TempDir()
		GinkgoT().Setenv("HOME", homeDir)
		Expect(os.Chdir(cwd)).To(Succeed())

		dbPath := filepath.Join(homeDir, ".flagsnap", "history.db")
		Expect(os.MkdirAll(filepath.Dir(dbPath), 0o755)).To(Succeed())
		Expect(os.WriteFile(dbPath, []byte("test"), 0o644)).To(Succeed())

		path, err := store.ResolveSQLitePath("")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(dbPath))
	})

	It("fails when nothing is found", func() {
		GinkgoT().Setenv("HOME", GinkgoT().TempDir())
		Expect(os.Chdir(GinkgoT().TempDir())).To(Succeed())

		_, err := store.ResolveSQLitePath("")
		Expect(err).To(MatchError(store.ErrNoHistory))
	})
})

var _ = Describe("OpenDriver", func() {
	It("returns nil without a backend", func() {
		d, err := store.OpenDriver(context.Background(), "", "", logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(BeNil())
	})

	It("opens a sqlite history, creating its directory", func() {
		path := filepath.Join(GinkgoT().TempDir(), "nested", "history.db")

		d, err := store.OpenDriver(context.Background(), path, "", logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(d).NotTo(BeNil())
		DeferCleanup(d.Close)

		_, err = os.Stat(path)
		Expect(err).NotTo(HaveOccurred())
	})
})

var _ = Describe("OpenPublisher", func() {
	It("returns nil without brokers", func() {
		p, err := store.OpenPublisher(nil, "topic", logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeNil())
	})
})
