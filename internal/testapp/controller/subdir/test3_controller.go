package subdir

import "github.com/toyz/routewire/pkg/web"

// Test3Controller has no class-level annotations; its dependency arrives
// through a setter.
type Test3Controller struct {
	urls web.URLGenerator
}

// @DI(serviceIds={"url_generator"})
func (c *Test3Controller) SetURLGenerator(urls web.URLGenerator) {
	c.urls = urls
}

// @Route("/dummy", bind="dummy")
func (c *Test3Controller) Dummy(ctx web.Context) (string, error) {
	return c.urls.URLFor(ctx, "dummy", nil, true)
}
