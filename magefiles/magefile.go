//go:build mage

// Package main provides build targets for sitegen using Mage.
//
// Usage:
//
//	mage build    Compile the sitegen binary to bin/
//	mage test     Run all tests
//	mage lint     Run golangci-lint
//	mage demo     Create and sync a demo project under bin/demo
//	mage clean    Remove build artifacts
//	mage install  Install sitegen to GOPATH/bin
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "sitegen"
	binaryDir  = "bin"
	cmdDir     = "./cmd/sitegen"
	versionVar = "github.com/syssam/sitegen/internal/cli.Version"
)

// version returns the git description of HEAD, or "dev" outside a checkout.
func version() string {
	out, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || strings.TrimSpace(out) == "" {
		return "dev"
	}
	return strings.TrimSpace(out)
}

// Build compiles the sitegen binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	ldflags := "-X " + versionVar + "=" + version()
	return sh.RunV("go", "build", "-v", "-ldflags", ldflags, "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Demo creates a demo project under bin/demo and generates it. An existing
// demo is replaced.
func Demo() error {
	mg.Deps(Build)
	dir := filepath.Join(binaryDir, "demo")
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return sh.RunV(filepath.Join(binaryDir, binaryName), "-C", binaryDir, "create", "demo", "--verbose")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV("go", "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output("go", "env", "GOPATH")
	if err != nil {
		return err
	}
	return sh.Copy(filepath.Join(gopath, "bin", binaryName), filepath.Join(binaryDir, binaryName))
}
