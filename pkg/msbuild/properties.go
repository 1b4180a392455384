package msbuild

import (
	"os"
	"path/filepath"
	"strings"
)

// properties holds the property table of one evaluation. MSBuild property
// names are case-insensitive, so every key is stored lower-cased.
type properties struct {
	root   string
	global map[string]string
	local  map[string]string
	env    map[string]string
}

func newProperties(root string, global map[string]string, environ []string) *properties {
	p := &properties{
		root:   root,
		global: make(map[string]string, len(global)),
		local:  make(map[string]string),
		env:    make(map[string]string, len(environ)),
	}
	for k, v := range global {
		p.global[strings.ToLower(k)] = v
	}
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		p.env[strings.ToLower(k)] = v
	}
	return p
}

// set defines a project property. Global properties cannot be overridden
// from project XML, and reserved properties cannot be set at all.
func (p *properties) set(name, value string) bool {
	key := strings.ToLower(name)
	if _, ok := p.global[key]; ok {
		return false
	}
	if _, ok := reserved(key, p.root, p.root); ok {
		return false
	}
	p.local[key] = value
	return true
}

// lookup resolves name as seen from file. Reserved properties win, then
// global, then project-defined, then environment variables.
func (p *properties) lookup(name, file string) string {
	key := strings.ToLower(name)
	if v, ok := reserved(key, p.root, file); ok {
		return v
	}
	if v, ok := p.global[key]; ok {
		return v
	}
	if v, ok := p.local[key]; ok {
		return v
	}
	return p.env[key]
}

func reserved(key, root, file string) (string, bool) {
	switch key {
	case "msbuildthisfile":
		return filepath.Base(file), true
	case "msbuildthisfilename":
		return trimExt(filepath.Base(file)), true
	case "msbuildthisfileextension":
		return filepath.Ext(file), true
	case "msbuildthisfilefullpath":
		return file, true
	case "msbuildthisfiledirectory":
		return withTrailingSeparator(filepath.Dir(file)), true
	case "msbuildthisfiledirectorynoroot":
		return strings.TrimPrefix(withTrailingSeparator(filepath.Dir(file)), filepath.VolumeName(file)+string(filepath.Separator)), true
	case "msbuildprojectfile":
		return filepath.Base(root), true
	case "msbuildprojectname":
		return trimExt(filepath.Base(root)), true
	case "msbuildprojectextension":
		return filepath.Ext(root), true
	case "msbuildprojectfullpath":
		return root, true
	case "msbuildprojectdirectory":
		return filepath.Dir(root), true
	case "msbuildprojectdirectorynoroot":
		return strings.TrimPrefix(filepath.Dir(root), filepath.VolumeName(root)+string(filepath.Separator)), true
	}
	return "", false
}

func trimExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func withTrailingSeparator(dir string) string {
	if strings.HasSuffix(dir, string(filepath.Separator)) {
		return dir
	}
	return dir + string(filepath.Separator)
}

// nativePath converts the backslash separators MSBuild files are written
// with into the host's separator.
func nativePath(p string) string {
	if filepath.Separator == '\\' {
		return filepath.FromSlash(p)
	}
	return strings.ReplaceAll(p, `\`, "/")
}

// resolvePath makes p absolute relative to dir and cleans it.
func resolvePath(dir, p string) string {
	p = nativePath(p)
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	return filepath.Clean(p)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
