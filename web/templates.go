// Package web holds the HTML templates served by the application.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"yatube/internal/utils"

	"github.com/gin-contrib/multitemplate"
)

//go:embed templates
var embedded embed.FS

// Templates returns the embedded templates, or dir when it is set.
func Templates(dir string) (fs.FS, error) {
	if dir != "" {
		return os.DirFS(dir), nil
	}
	return fs.Sub(embedded, "templates")
}

// FuncMap builds the template helpers. imageURL resolves stored image paths.
func FuncMap(imageURL func(string) string) template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"date": func(t time.Time) string {
			return t.Format("2 Jan 2006 15:04")
		},
		"markdown":  utils.RenderMarkdown,
		"truncate":  utils.Truncate,
		"daysSince": utils.GetDaysSinceJoined,
		"imageURL":  imageURL,
	}
}

// NewRenderer registers every view under views/ by its relative path
// (e.g. "posts/index.html"), each assembled with the layouts and includes.
func NewRenderer(fsys fs.FS, funcMap template.FuncMap) (multitemplate.Renderer, error) {
	r := multitemplate.NewRenderer()

	layouts, err := fs.Glob(fsys, "layouts/*.html")
	if err != nil {
		return nil, err
	}
	if len(layouts) == 0 {
		return nil, fmt.Errorf("no layouts found")
	}
	includes, err := fs.Glob(fsys, "includes/*.html")
	if err != nil {
		return nil, err
	}

	assemble := func(view string) []string {
		files := make([]string, 0, len(layouts)+len(includes)+1)
		files = append(files, layouts...)
		files = append(files, includes...)
		files = append(files, view)
		return files
	}

	err = fs.WalkDir(fsys, "views", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".html") {
			return nil
		}

		files := assemble(p)
		tmpl, err := template.New(path.Base(files[0])).Funcs(funcMap).ParseFS(fsys, files...)
		if err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		r.Add(strings.TrimPrefix(p, "views/"), tmpl)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}
