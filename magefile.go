//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"

	"codeberg.org/snonux/ankilex/internal"
)

const binary = "ankilex"

var Default = Build

// version prefers $VERSION, then the git description, then the source default
func version() string {
	if v := strings.TrimSpace(os.Getenv("VERSION")); v != "" {
		return v
	}
	if v, err := sh.Output("git", "describe", "--tags", "--always", "--dirty"); err == nil && v != "" {
		return strings.TrimPrefix(v, "v")
	}
	return internal.Version
}

// Build compiles the ankilex binary
func Build() error {
	ldflags := fmt.Sprintf("-X codeberg.org/snonux/ankilex/internal.Version=%s", version())
	return sh.RunV("go", "build", "-ldflags", ldflags, "-o", binary, "./cmd/ankilex")
}

// Test runs all tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs vet and tests
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Install builds and copies the binary to $GOPATH/bin
func Install() error {
	mg.Deps(Build)

	gopath, err := sh.Output("go", "env", "GOPATH")
	if err != nil {
		return err
	}
	dest := filepath.Join(gopath, "bin", binary)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	if err := sh.Copy(dest, binary); err != nil {
		return err
	}
	return os.Chmod(dest, 0755)
}

// Clean removes build artifacts
func Clean() error {
	return sh.Rm(binary)
}
