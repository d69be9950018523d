package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/shopspring/decimal"
)

//go:embed tpl/**/*.tmpl
//go:embed tpl/*.tmpl
var tplFS embed.FS

// Renderer executes the embedded page templates. Every page file defines a
// template named after the file which wraps "base".
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	md := NewMarkdown()
	funcs := template.FuncMap{
		"nowUTC":    func() time.Time { return time.Now().UTC() },
		"money":     FormatMoney,
		"percent":   func(d decimal.Decimal) string { return d.String() + "%" },
		"date":      func(t time.Time) string { return t.Format("January 2, 2006") },
		"datetime":  func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },
		"markdown":  md.Render,
		"themeVars": func(t Theme) template.CSS { return t.Tokens.CSS() },
	}
	base := template.New("root").Funcs(sprig.FuncMap()).Funcs(funcs)
	if _, err := base.ParseFS(tplFS, "tpl/base.tmpl", "tpl/partials/*.tmpl"); err != nil {
		return nil, fmt.Errorf("parse base templates: %w", err)
	}

	files, err := fs.Glob(tplFS, "tpl/pages/*.tmpl")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, f := range files {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(tplFS, f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		r.pages[strings.TrimSuffix(path.Base(f), ".tmpl")] = t
	}
	return r, nil
}

// Render writes page name. Output is buffered so a template error never
// leaves a half-written response.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// FormatMoney renders d as dollars with thousands separators.
func FormatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
