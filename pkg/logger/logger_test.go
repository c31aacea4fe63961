package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/flagsnap/pkg/logger"
)

// decodeLine parses the single JSON log line in buf.
func decodeLine(buf *bytes.Buffer) map[string]any {
	var parsed map[string]any
	ExpectWithOffset(1, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &parsed)).To(Succeed())
	return parsed
}

var _ = Describe("New", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
	})

	It("writes text records by default", func() {
		logger.New(logger.WithWriter(buf)).Info("opening stream", "url", "https://stream.example.com")

		Expect(buf.String()).To(ContainSubstring("opening stream"))
		Expect(buf.String()).To(ContainSubstring("url=https://stream.example.com"))
	})

	DescribeTable("level filtering",
		func(debug bool, expectDebug bool) {
			l := logger.New(logger.WithWriter(buf), logger.WithDebug(debug))
			l.Debug("stream open")
			l.Info("snapshot received")

			Expect(buf.String()).To(ContainSubstring("snapshot received"))
			if expectDebug {
				Expect(buf.String()).To(ContainSubstring("stream open"))
			} else {
				Expect(buf.String()).NotTo(ContainSubstring("stream open"))
			}
		},
		Entry("info by default", false, false),
		Entry("debug when enabled", true, true),
	)

	It("writes JSON records", func() {
		logger.New(logger.WithWriter(buf), logger.WithJSON(true)).Info("snapshot received", "flags", 12)

		parsed := decodeLine(buf)
		Expect(parsed["msg"]).To(Equal("snapshot received"))
		Expect(parsed["flags"]).To(BeNumerically("==", 12))
		Expect(parsed["level"]).To(Equal("INFO"))
	})

	It("adds the source location on request", func() {
		logger.New(logger.WithWriter(buf), logger.WithJSON(true), logger.WithSource(true)).Info("resolved")

		Expect(decodeLine(buf)).To(HaveKey(slog.SourceKey))
	})

	It("writes pretty records", func() {
		logger.New(logger.WithWriter(buf), logger.WithPretty(true)).Warn("stream closed by server", "bytes", 512)

		Expect(buf.String()).To(ContainSubstring("stream closed by server"))
		Expect(buf.String()).To(ContainSubstring("512"))
	})

	It("fans out to every writer", func() {
		var second bytes.Buffer
		logger.New(logger.WithWriters(buf, &second)).Info("delivered")

		Expect(buf.String()).To(ContainSubstring("delivered"))
		Expect(second.String()).To(ContainSubstring("delivered"))
	})

	It("carries bound attributes and groups", func() {
		l := logger.New(logger.WithWriter(buf), logger.WithJSON(true))
		l.With("run_id", "run-1").WithGroup("feed").Info("resolved release", "build_number", "52118")

		parsed := decodeLine(buf)
		Expect(parsed["run_id"]).To(Equal("run-1"))
		Expect(parsed["feed"]).To(HaveKeyWithValue("build_number", "52118"))
	})
})

var _ = Describe("Nop", func() {
	It("is disabled at every level", func() {
		h := logger.Nop().Handler()
		for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
			Expect(h.Enabled(context.Background(), level)).To(BeFalse())
		}
	})

	It("accepts derived loggers", func() {
		Expect(func() {
			logger.Nop().With("run_id", "run-1").WithGroup("stream").Error("rejected", "status", 401)
		}).NotTo(Panic())
	})
})

var _ = Describe("Multi", func() {
	It("dispatches each record to every logger", func() {
		var text, structured bytes.Buffer
		multi := logger.Multi(
			logger.New(logger.WithWriter(&text)),
			logger.New(logger.WithWriter(&structured), logger.WithJSON(true)),
		)

		multi.With("run_id", "run-2").WithGroup("sink").Info("wrote file", "path", "flags.json")

		Expect(text.String()).To(ContainSubstring("wrote file"))
		parsed := decodeLine(&structured)
		Expect(parsed["run_id"]).To(Equal("run-2"))
		Expect(parsed["sink"]).To(HaveKeyWithValue("path", "flags.json"))
	})

	It("is enabled when any logger is", func() {
		var buf bytes.Buffer
		multi := logger.Multi(logger.Nop(), logger.New(logger.WithWriter(&buf), logger.WithDebug(true)))

		Expect(multi.Handler().Enabled(context.Background(), slog.LevelDebug)).To(BeTrue())
	})
})

var _ = Describe("IsTerminal", func() {
	It("reports false for in-memory writers", func() {
		Expect(logger.IsTerminal(&bytes.Buffer{})).To(BeFalse())
	})

	It("reports false for regular files", func() {
		f, err := os.CreateTemp(GinkgoT().TempDir(), "log")
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()
		Expect(logger.IsTerminal(f)).To(BeFalse())
	})
})
