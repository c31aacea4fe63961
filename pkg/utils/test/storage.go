package testutils

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/flagsnap/pkg/storage"
)

// DescribeDriver registers the behaviour every storage.Driver must share.
// newDriver is called before each test; the driver is closed after it.
func DescribeDriver(name string, newDriver func() storage.Driver) bool {
	return Describe(name+" driver contract", func() {
		var (
			driver storage.Driver
			ctx    context.Context
			base   time.Time
		)

		BeforeEach(func() {
			ctx = context.Background()
			base = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
			driver = nil
			driver = newDriver()
		})

		AfterEach(func() {
			if driver != nil {
				Expect(driver.Close()).To(Succeed())
			}
		})

		It("stores and retrieves a record", func() {
			rec := NewTestRecord(`{"a":{"version":1}}`, base)

			inserted, err := driver.Put(ctx, rec)
			Expect(err).NotTo(HaveOccurred())
			Expect(inserted).To(BeTrue())

			got, err := driver.Get(ctx, rec.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(rec.ID))
			Expect(got.RunID).To(Equal(rec.RunID))
			Expect(got.Digest).To(Equal(rec.Digest))
			Expect(got.EndpointHost).To(Equal(rec.EndpointHost))
			Expect(got.FlagCount).To(Equal(rec.FlagCount))
			Expect(got.CapturedAt.Equal(rec.CapturedAt)).To(BeTrue())
			Expect(string(got.Snapshot)).To(Equal(string(rec.Snapshot)))
		})

		It("treats a repeated id as a no-op", func() {
			rec := NewTestRecord(`{}`, base)

			_, err := driver.Put(ctx, rec)
			Expect(err).NotTo(HaveOccurred())

			inserted, err := driver.Put(ctx, rec)
			Expect(err).NotTo(HaveOccurred())
			Expect(inserted).To(BeFalse())

			recs, err := driver.List(ctx, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(recs).To(HaveLen(1))
		})

		It("rejects nil records", func() {
			_, err := driver.Put(ctx, nil)
			Expect(err).To(HaveOccurred())
		})

		It("returns NotFoundError for unknown ids", func() {
			_, err := driver.Get(ctx, "missing")

			var nf storage.NotFoundError
			Expect(errors.As(err, &nf)).To(BeTrue())
			Expect(nf.ID).To(Equal("missing"))
		})

		It("lists newest first and honours the limit", func() {
			oldest := NewTestRecord(`{"n":1}`, base)
			middle := NewTestRecord(`{"n":2}`, base.Add(time.Minute))
			newest := NewTestRecord(`{"n":3}`, base.Add(2*time.Minute))

			for _, rec := range []*storage.Record{middle, oldest, newest} {
				_, err := driver.Put(ctx, rec)
				Expect(err).NotTo(HaveOccurred())
			}

			recs, err := driver.List(ctx, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(recs).To(HaveLen(3))
			Expect(recs[0].ID).To(Equal(newest.ID))
			Expect(recs[2].ID).To(Equal(oldest.ID))

			recs, err = driver.List(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(recs).To(HaveLen(2))

			latest, err := driver.Latest(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(latest.ID).To(Equal(newest.ID))
		})

		It("returns NotFoundError from Latest on an empty store", func() {
			_, err := driver.Latest(ctx)

			var nf storage.NotFoundError
			Expect(errors.As(err, &nf)).To(BeTrue())
		})
	})
}
