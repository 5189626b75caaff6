// Package controller holds annotated controllers exercised by the
// integration tests.
package controller

import (
	"sync/atomic"

	"github.com/toyz/routewire/pkg/container"
	"github.com/toyz/routewire/pkg/web"
)

// hits counts calls of the static callbacks, which have no receiver to
// record them on.
var hits atomic.Int64

// StaticHits returns how often BeforeSecond and AfterSecond ran
func StaticHits() int64 {
	return hits.Load()
}

// TestController greets by (reversed) name.
//
// @Route("/{_locale}")
// @DI(injectContainer=true)
type TestController struct {
	container *container.Container
	served    atomic.Int64
}

func NewTestController(c *container.Container) *TestController {
	return &TestController{container: c}
}

// Container returns the container the controller was built with
func (c *TestController) Container() *container.Container {
	return c.container
}

// Served counts completed HelloName requests
func (c *TestController) Served() int64 {
	return c.served.Load()
}

// @Route("/hello/{name}",
//
//	bind="hello_name",
//	asserts={"name"="\w+"},
//	values={"name"="world"},
//	converters={
//	    @Convert("name", callback=@Callback("__self:ConvertName"))
//	},
//	method="GET",
//	requireHttp=false,
//	requireHttps=false,
//	before={
//	    @Callback("__self:BeforeFirst"),
//	    @Callback("__self::BeforeSecond")
//	},
//	after={
//	    @Callback("__self:AfterFirst"),
//	    @Callback("__self::AfterSecond")
//	}
//
// )
func (c *TestController) HelloName(ctx web.Context) string {
	return "hello " + ctx.Param("name") + "!"
}

// ConvertName reverses name
func (c *TestController) ConvertName(name string) string {
	r := []rune(name)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func (c *TestController) BeforeFirst(ctx web.Context) {
	ctx.Set("hello.before", true)
}

func (c *TestController) AfterFirst() {
	c.served.Add(1)
}

func BeforeSecond() {
	hits.Add(1)
}

func AfterSecond() {
	hits.Add(1)
}
