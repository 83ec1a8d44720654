// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package storage

import (
	"os"
	"path"
	"strings"
)

// Filer abstracts the destination a filing's raw documents are written to.
// The Downloader depends only on this interface so the local filesystem
// layout can later be swapped for an object-storage-backed implementation
// without touching download logic.
type Filer interface {
	CreateFile(name string, data []byte) (string, error)
	Exists(name string) bool
}

// FSFiler writes files under a base directory, creating intermediate
// directories as needed.
type FSFiler struct {
	BasePath string
}

func (fs *FSFiler) CreateFile(name string, data []byte) (string, error) {
	filePath := path.Join(fs.BasePath, name)
	if dir := path.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
	}
	err := os.WriteFile(filePath, data, 0644)
	return filePath, err
}

func (fs *FSFiler) Exists(name string) bool {
	filePath := path.Join(fs.BasePath, name)
	_, err := os.Stat(filePath)
	return err == nil
}

// NewFilerFromString constructs a Filer from a URI-like spec. Only the
// file:// scheme is implemented; other schemes are reserved for future
// object-storage filers.
func NewFilerFromString(spec string) Filer {
	switch {
	case strings.HasPrefix(spec, "file://"):
		return &FSFiler{
			BasePath: strings.TrimPrefix(spec, "file://"),
		}
	}
	return nil
}
