// Copyright 2023 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package yang

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AddPath adds the directories specified in paths, each a colon separated
// list of directory names, to the module search path of ms, if they are
// not already present.
func (ms *Modules) AddPath(paths ...string) {
	for _, path := range paths {
		for _, p := range strings.Split(path, ":") {
			if !ms.pathMap[p] {
				ms.pathMap[p] = true
				ms.pathList = append(ms.pathList, p)
			}
		}
	}
}

// PathsWithModules returns all paths under and including root that contain
// files with a ".yang" extension, as well as any error encountered.
func PathsWithModules(root string) (paths []string, err error) {
	pm := map[string]bool{}
	err = filepath.Walk(root, func(p string, info os.FileInfo, e error) error {
		if e != nil {
			return e
		}
		if info == nil {
			return nil
		}
		if !info.IsDir() && strings.HasSuffix(p, ".yang") {
			dir := filepath.Dir(p)
			if !pm[dir] {
				pm[dir] = true
				paths = append(paths, dir)
			}
		}
		return nil
	})
	return paths, err
}

// readFile makes testing of findFile easier.
var readFile = os.ReadFile

// scanDir reports whether dir/name exists, returning the full path.
func scanDir(dir, name string, recurse bool) string {
	path := filepath.Join(dir, name)
	if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
		return path
	}
	if !recurse {
		return ""
	}
	var found string
	filepath.Walk(dir, func(p string, info os.FileInfo, e error) error {
		if e != nil || info == nil {
			return nil
		}
		if found == "" && !info.IsDir() && filepath.Base(p) == name {
			found = p
		}
		return nil
	})
	return found
}

// findFile returns the name and contents of the .yang file associated with
// name, or an error.  If name is a module name rather than a file name (it
// does not have a .yang extension and contains no /), .yang is appended to
// the name.  The current directory is always checked first, no matter the
// search path.  A search path entry of the form dir/... searches dir and
// its subdirectories.
func (ms *Modules) findFile(name string) (string, string, error) {
	slash := strings.Index(name, "/")

	if slash < 0 && !strings.HasSuffix(name, ".yang") {
		name += ".yang"
	}

	switch data, err := readFile(name); true {
	case err == nil:
		ms.AddPath(filepath.Dir(name))
		return name, string(data), nil
	case slash >= 0:
		// If there are any /'s in the name then don't search the path.
		return "", "", fmt.Errorf("no such file: %s", name)
	}

	for _, dir := range ms.pathList {
		recurse := strings.HasSuffix(dir, "/...")
		dir = strings.TrimSuffix(dir, "/...")
		if path := scanDir(dir, name, recurse); path != "" {
			data, err := readFile(path)
			if err != nil {
				return "", "", err
			}
			ms.AddPath(filepath.Dir(path))
			return path, string(data), nil
		}
	}
	return "", "", fmt.Errorf("no such module: %s", name)
}
