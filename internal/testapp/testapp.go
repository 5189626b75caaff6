// Package testapp registers the annotated controllers under
// internal/testapp/controller for integration tests.
package testapp

import (
	"path/filepath"
	"runtime"

	"github.com/toyz/routewire/internal/testapp/controller"
	"github.com/toyz/routewire/internal/testapp/controller/subdir"
	"github.com/toyz/routewire/pkg/routewire"
)

// Register adds the test controllers to reg
func Register(reg *routewire.Registry) error {
	if err := reg.Register(controller.NewTestController,
		routewire.Static("BeforeSecond", controller.BeforeSecond),
		routewire.Static("AfterSecond", controller.AfterSecond),
	); err != nil {
		return err
	}
	if err := reg.Register(controller.NewTest2Controller); err != nil {
		return err
	}
	return reg.RegisterType(subdir.Test3Controller{})
}

// ControllerDir returns the source directory of the test controllers
func ControllerDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "controller")
}
