// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the FSInfo struct, which stores file system metadata.
//
// The file path connects a parsed definition back to its source on disk. It
// is used in error messages and as the base directory for relative paths
// such as a mesh file or an output directory.
package model

import "path/filepath"

type FSInfo struct {
	FilePath string
}

func NewFSInfo(filePath string) *FSInfo {
	return &FSInfo{
		FilePath: filePath,
	}
}

// Resolve returns p unchanged when it is absolute, and otherwise joins it to
// the directory of the source file.
func (f *FSInfo) Resolve(p string) string {
	if f == nil || f.FilePath == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(f.FilePath), p)
}
