// Package web embeds the page templates and static assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static templates
var content embed.FS

// StaticFS returns the static asset file system (stylesheet).
func StaticFS() fs.FS {
	return sub("static")
}

// TemplatesFS returns the page template file system.
func TemplatesFS() fs.FS {
	return sub("templates")
}

// sub only fails for invalid paths, so a failure is a programming error.
func sub(dir string) fs.FS {
	f, err := fs.Sub(content, dir)
	if err != nil {
		panic("web: " + err.Error())
	}
	return f
}
