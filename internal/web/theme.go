package web

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
)

// Breakpoint names follow the usual 576/768/992/1200/1600 grid.
type Breakpoint string

const (
	XS  Breakpoint = "xs"
	SM  Breakpoint = "sm"
	MD  Breakpoint = "md"
	LG  Breakpoint = "lg"
	XL  Breakpoint = "xl"
	XXL Breakpoint = "xxl"
)

var breakpoints = []struct {
	min int
	bp  Breakpoint
}{{1600, XXL}, {1200, XL}, {992, LG}, {768, MD}, {576, SM}, {0, XS}}

// BreakpointFor maps a viewport width in CSS pixels.
func BreakpointFor(width int) Breakpoint {
	for _, b := range breakpoints {
		if width >= b.min {
			return b.bp
		}
	}
	return XS
}

// Tokens are the design tokens emitted as CSS custom properties.
type Tokens struct {
	ColorPrimary string
	ColorSuccess string
	ColorError   string
	ColorBg      string
	ColorSurface string
	ColorText    string
	ColorMuted   string
	FontFamily   string
	BorderRadius int
	SidebarWidth int
}

func DefaultTokens() Tokens {
	return Tokens{
		ColorPrimary: "#1677ff",
		ColorSuccess: "#52c41a",
		ColorError:   "#ff4d4f",
		ColorBg:      "#f5f5f5",
		ColorSurface: "#ffffff",
		ColorText:    "rgba(0,0,0,0.88)",
		ColorMuted:   "rgba(0,0,0,0.45)",
		FontFamily:   "-apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif",
		BorderRadius: 6,
		SidebarWidth: 250,
	}
}

func (t Tokens) CSS() template.CSS {
	var b strings.Builder
	b.WriteString(":root{")
	for _, kv := range [][2]string{
		{"color-primary", t.ColorPrimary},
		{"color-success", t.ColorSuccess},
		{"color-error", t.ColorError},
		{"color-bg", t.ColorBg},
		{"color-surface", t.ColorSurface},
		{"color-text", t.ColorText},
		{"color-muted", t.ColorMuted},
		{"font-family", t.FontFamily},
		{"radius", fmt.Sprintf("%dpx", t.BorderRadius)},
		{"sidebar-width", fmt.Sprintf("%dpx", t.SidebarWidth)},
	} {
		fmt.Fprintf(&b, "--%s:%s;", kv[0], strings.NewReplacer("<", "", ">", "", "}", "").Replace(kv[1]))
	}
	b.WriteString("}")
	return template.CSS(b.String())
}

// Theme is the design-system context handed to every page.
type Theme struct {
	Tokens     Tokens
	Breakpoint Breakpoint
	Mobile     bool
}

// DetectTheme reads the responsive client hints. Without hints the desktop
// breakpoint is assumed and the stylesheet's media queries take over.
func DetectTheme(r *http.Request, tokens Tokens) Theme {
	th := Theme{Tokens: tokens, Breakpoint: LG}
	if v := r.Header.Get("Sec-CH-Viewport-Width"); v != "" {
		if w, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && w > 0 {
			th.Breakpoint = BreakpointFor(w)
		}
	}
	if r.Header.Get("Sec-CH-UA-Mobile") == "?1" {
		th.Mobile = true
		if r.Header.Get("Sec-CH-Viewport-Width") == "" {
			th.Breakpoint = XS
		}
	}
	return th
}

// Compact reports whether the side panel should collapse above the content.
func (t Theme) Compact() bool { return t.Breakpoint == XS || t.Breakpoint == SM }
