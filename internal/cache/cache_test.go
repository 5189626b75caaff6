package cache_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/toyz/routewire/internal/cache"
	"github.com/toyz/routewire/internal/errors"
	"github.com/toyz/routewire/internal/metadata"
	"github.com/toyz/routewire/pkg/annotation"
)

func TestCache(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cache Suite")
}

func sampleClasses() []metadata.ClassInfo {
	return []metadata.ClassInfo{{
		Name:       "example.com/app/controller.TestController",
		ServiceKey: "example.com.app.controller.testcontroller",
		AnnotationInfo: metadata.AnnotationInfo{
			Route: &annotation.Route{Pattern: "/{_locale}"},
			DI:    &annotation.DI{InjectContainer: true},
		},
		Methods: []metadata.MethodInfo{{
			Name: "Hello",
			AnnotationInfo: metadata.AnnotationInfo{Route: &annotation.Route{
				Pattern:  "/hello/{name}",
				Bind:     "hello_name",
				Defaults: map[string]string{"name": "world"},
				Converters: []annotation.Convert{{
					Variable: "name",
					Callback: annotation.Callback{Reference: "example.com.app.controller.testcontroller:ConvertName"},
				}},
			}},
		}},
	}}
}

var _ = Describe("Controller", func() {
	var (
		dir string
		c   *cache.Controller
	)

	BeforeEach(func() {
		dir = filepath.Join(GinkgoT().TempDir(), "nested", "cache")
		c = cache.New(dir)
	})

	Describe("State", func() {
		It("should be stale when no snapshot exists", func() {
			Expect(c.State(false)).To(Equal(cache.Stale))
			Expect(c.IsFresh(false)).To(BeFalse())
		})

		It("should be fresh once a snapshot was written", func() {
			Expect(c.Update(sampleClasses())).To(Succeed())
			Expect(c.State(false)).To(Equal(cache.Fresh))
			Expect(c.State(false).String()).To(Equal("fresh"))
		})

		It("should always be stale in debug mode", func() {
			Expect(c.Update(sampleClasses())).To(Succeed())
			Expect(c.IsFresh(true)).To(BeFalse())
			Expect(c.State(true).String()).To(Equal("stale"))
		})
	})

	Describe("Update and Load", func() {
		It("should create the cache directory", func() {
			Expect(c.Update(nil)).To(Succeed())
			info, err := os.Stat(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
			Expect(c.File()).To(Equal(filepath.Join(dir, cache.FileName)))
		})

		It("should read back what was written", func() {
			classes := sampleClasses()
			Expect(c.Update(classes)).To(Succeed())

			snap, err := c.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Version).To(Equal(cache.Version))
			Expect(snap.Classes).To(Equal(classes))

			_, err = time.Parse(time.RFC3339, snap.Generated)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should store an empty class list", func() {
			Expect(c.Update(nil)).To(Succeed())
			snap, err := c.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Classes).To(BeEmpty())
		})

		It("should leave no temporary files behind", func() {
			Expect(c.Update(sampleClasses())).To(Succeed())
			Expect(c.Update(sampleClasses())).To(Succeed())
			entries, err := os.ReadDir(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Name()).To(Equal(cache.FileName))
		})

		It("should never expose a torn snapshot to concurrent writers", func() {
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					Expect(c.Update(sampleClasses())).To(Succeed())
				}()
			}
			wg.Wait()

			snap, err := c.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Classes).To(HaveLen(1))
		})
	})

	Describe("Load failures", func() {
		It("should report a missing snapshot as a configuration error", func() {
			_, err := c.Load()
			Expect(err).To(HaveOccurred())
			Expect(errors.HasCode(err, errors.ConfigurationErrorCode)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("does not exist"))
		})

		It("should name the file of a corrupt snapshot", func() {
			Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
			Expect(os.WriteFile(c.File(), []byte("version: [1\n"), 0o644)).To(Succeed())

			_, err := c.Load()
			Expect(err).To(HaveOccurred())
			Expect(errors.HasCode(err, errors.ConfigurationErrorCode)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring(c.File()))
			Expect(err.Error()).To(ContainSubstring("corrupt"))
		})

		It("should reject a snapshot of another version", func() {
			Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
			Expect(os.WriteFile(c.File(), []byte("version: 7\nclasses: []\n"), 0o644)).To(Succeed())

			_, err := c.Load()
			Expect(err).To(HaveOccurred())
			Expect(errors.HasCode(err, errors.ConfigurationErrorCode)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("version 7"))
		})
	})

	Describe("Clean", func() {
		It("should remove the snapshot and make the cache stale", func() {
			Expect(c.Update(sampleClasses())).To(Succeed())
			Expect(c.Clean()).To(Succeed())
			Expect(c.IsFresh(false)).To(BeFalse())
		})

		It("should succeed when there is nothing to remove", func() {
			Expect(c.Clean()).To(Succeed())
		})
	})
})
