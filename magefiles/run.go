//go:build mage

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Preloads the models listed in $MODELS (comma separated) from $ASSETS_ROOT.
func (Run) Preload() error {
	models := strings.Split(os.Getenv("MODELS"), ",")
	if len(models) == 0 || models[0] == "" {
		return fmt.Errorf("set MODELS to a comma separated list of model names")
	}
	args := []string{"run", "main.go"}
	if root := os.Getenv("ASSETS_ROOT"); root != "" {
		args = append(args, "-root", root)
	}
	if mg.Verbose() {
		args = append(args, "-v")
	}
	args = append(args, models...)

	fmt.Println("Preloading models...")
	_, err := executeCmd("go", withArgs(args...), withStream())
	return err
}
