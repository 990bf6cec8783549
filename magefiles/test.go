//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs every package test.
func (Test) Unit() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}

// Runs every package test with the race detector. The pool, the cache and
// the renderer goroutine are all exercised concurrently by the tests.
func (Test) Race() error {
	mg.Deps(Tidy)
	_, err := executeCmd("go", withArgs("test", "-race", "-count=1", "./..."), withStream())
	return err
}

// Runs go mod tidy.
func Tidy() error {
	return goTidy()
}
