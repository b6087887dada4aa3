package router

import (
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"github.com/gin-contrib/multitemplate"

	"onebite/internal/utils"
)

func TimeAgo(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	seconds := int(time.Since(t).Seconds())

	if seconds < 60 {
		return "just now"
	} else if seconds < 3600 {
		return fmt.Sprintf("%dm ago", seconds/60)
	} else if seconds < 86400 {
		return fmt.Sprintf("%dh ago", seconds/3600)
	} else if seconds < 2592000 {
		return fmt.Sprintf("%dd ago", seconds/86400)
	}
	return t.Format("2006-01-02")
}

var funcMap = template.FuncMap{
	"timeAgo":  TimeAgo,
	"markdown": utils.RenderMarkdown,
}

// LoadTemplates layouts/*.html + views/<name>.html 组成一个页面
func LoadTemplates(templatesDir string) (multitemplate.Renderer, error) {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(filepath.Join(templatesDir, "layouts", "*.html"))
	if err != nil {
		return nil, err
	}
	if len(layouts) == 0 {
		return nil, fmt.Errorf("no layouts found in %s", templatesDir)
	}

	views, err := filepath.Glob(filepath.Join(templatesDir, "views", "*.html"))
	if err != nil {
		return nil, err
	}
	for _, view := range views {
		files := append(append([]string{}, layouts...), view)
		r.AddFromFilesFuncs(filepath.Base(view), funcMap, files...)
	}
	return r, nil
}
