//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// sourceRoots are the directories holding pond code.
var sourceRoots = []string{"cmd", "internal", "pkg"}

// packageStats counts non-blank Go lines in one package directory.
type packageStats struct {
	Package string `json:"package"`
	Files   int    `json:"files"`
	Prod    int    `json:"prod"`
	Test    int    `json:"test"`
}

// Stats prints non-blank Go line counts per package, then a total line.
func Stats() error {
	byDir := map[string]*packageStats{}
	for _, root := range sourceRoots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return filepath.SkipDir
				}
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".go") {
				return nil
			}
			n, err := countCodeLines(path)
			if err != nil {
				return err
			}
			dir := filepath.ToSlash(filepath.Dir(path))
			ps := byDir[dir]
			if ps == nil {
				ps = &packageStats{Package: dir}
				byDir[dir] = ps
			}
			ps.Files++
			if strings.HasSuffix(path, "_test.go") {
				ps.Test += n
			} else {
				ps.Prod += n
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	total := packageStats{Package: "total"}
	enc := json.NewEncoder(os.Stdout)
	for _, dir := range dirs {
		ps := byDir[dir]
		total.Files += ps.Files
		total.Prod += ps.Prod
		total.Test += ps.Test
		if err := enc.Encode(ps); err != nil {
			return err
		}
	}
	if err := enc.Encode(total); err != nil {
		return err
	}
	if total.Prod > 0 {
		fmt.Printf("test/prod ratio: %.2f\n", float64(total.Test)/float64(total.Prod))
	}
	return nil
}

func countCodeLines(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	count := 0
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if len(bytes.TrimSpace(scanner.Bytes())) > 0 {
			count++
		}
	}
	return count, scanner.Err()
}
