package controller

import "github.com/toyz/routewire/pkg/web"

// Test2Controller links back to TestController.
//
// @Route("/{_locale}")
// @DI(serviceIds={"url_generator"})
type Test2Controller struct {
	urls web.URLGenerator
}

func NewTest2Controller(urls web.URLGenerator) *Test2Controller {
	return &Test2Controller{urls: urls}
}

// @Route("/hello/url", bind="hello_url")
func (c *Test2Controller) HelloURL(ctx web.Context) (string, error) {
	return c.urls.URLFor(ctx, "hello_name", map[string]string{"name": "urs"}, true)
}
