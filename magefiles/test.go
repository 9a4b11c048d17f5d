//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups test targets (all, race, cover).
type Test mg.Namespace

// All runs every package's tests.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-v", "./...")
}

// Race runs every package's tests with the race detector.
func (Test) Race() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Cover runs every package's tests and writes coverage.out.
func (Test) Cover() error {
	if err := sh.RunV(binGo, "test", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func=coverage.out")
}

// Smoke builds the binary, then initializes a scratch pond, ingests one
// sample file and resolves its semantic name.
func Smoke() error {
	mg.Deps(Build)

	root, err := os.MkdirTemp("", "pond-smoke-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(root)

	bin, err := filepath.Abs(filepath.Join(binaryDir, binaryName))
	if err != nil {
		return err
	}
	pond := func(args ...string) (string, error) {
		full := append([]string{"--root", root, "--config-dir", filepath.Join(root, "config")}, args...)
		return sh.Output(bin, full...)
	}

	if _, err := pond("init"); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	sample := filepath.Join(root, "data_store", "add_to_pond", "2020_smoke.csv")
	if err := os.WriteFile(sample, []byte("a,b\n1,2\n"), 0o644); err != nil {
		return err
	}
	if _, err := pond("ingest"); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	path, err := pond("resolve", "smoke.csv")
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}
	want := filepath.Join(root, "data_store", "data_pond", "2020_smoke.csv")
	if path != want {
		return fmt.Errorf("resolve smoke.csv = %q, want %q", path, want)
	}
	fmt.Println("smoke ok:", path)
	return nil
}
