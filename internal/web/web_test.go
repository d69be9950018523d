package web

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frodoestate/internal/nav"
	"frodoestate/internal/notify"
	"frodoestate/internal/view"
)

func TestFormatMoney(t *testing.T) {
	for in, want := range map[string]string{
		"0":          "$0.00",
		"10":         "$10.00",
		"1234.5":     "$1,234.50",
		"100000":     "$100,000.00",
		"-9876543.2": "-$9,876,543.20",
	} {
		assert.Equal(t, want, FormatMoney(decimal.RequireFromString(in)), in)
	}
}

func TestMarkdownSanitises(t *testing.T) {
	md := NewMarkdown()
	out := string(md.Render("**bold** <script>alert(1)</script> [x](javascript:alert(1))"))
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "javascript:")
}

func TestDetectTheme(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	th := DetectTheme(r, DefaultTokens())
	assert.Equal(t, LG, th.Breakpoint)
	assert.False(t, th.Compact())

	r.Header.Set("Sec-CH-Viewport-Width", "700")
	assert.Equal(t, SM, DetectTheme(r, DefaultTokens()).Breakpoint)

	r = httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Sec-CH-UA-Mobile", "?1")
	th = DetectTheme(r, DefaultTokens())
	assert.True(t, th.Mobile)
	assert.True(t, th.Compact())

	assert.Equal(t, XXL, BreakpointFor(1920))
	assert.Equal(t, XS, BreakpointFor(320))
}

func TestTokensCSS(t *testing.T) {
	css := string(DefaultTokens().CSS())
	assert.True(t, strings.HasPrefix(css, ":root{"))
	assert.Contains(t, css, "--sidebar-width:250px;")
}

func TestRenderShell(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	layout := nav.NewLayout(nav.TypeBar, true)
	page := Page[struct{ Heading, Message string }]{
		Title:       "Property Not Found",
		Path:        "/properties/404",
		ShowSidebar: layout.ShowSidebar(),
		Sidebar:     layout.Sidebar(nav.PathHome),
		Wallet:      WalletData{AppName: "Frodo Estate", Connected: true, Address: "0xabc", Short: "0xab…bc"},
		Theme:       Theme{Tokens: DefaultTokens(), Breakpoint: LG},
		Notices:     []notify.Notice{{ID: "1", Message: "Purchase failed", Variant: notify.Error}},
		Modal:       &view.Modal{Action: "sell", TargetID: "1", Title: "Sell Property Part", Prompt: "Sure?"},
		Content:     struct{ Heading, Message string }{"Property Not Found", "The property you are looking for does not exist."},
	}
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "notfound", page))
	html := buf.String()

	assert.Contains(t, html, `class="sidebar"`)
	assert.Contains(t, html, `class="menu-item selected"><a href="/home" aria-current="page">Home</a>`)
	assert.Contains(t, html, "Add Property")
	assert.Contains(t, html, "notice-error")
	assert.Contains(t, html, `action="/properties/404/1/sell"`)
	assert.Contains(t, html, "The property you are looking for does not exist.")

	assert.Error(t, r.Render(&buf, "missing", page))
}

func TestRenderWithoutSidebar(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "splash", Page[struct{ Description string }]{
		Wallet:  WalletData{AppName: "Frodo Estate"},
		Refresh: &Refresh{Seconds: 2, URL: "/home"},
	}))
	assert.NotContains(t, buf.String(), `class="sidebar"`)
	assert.Contains(t, buf.String(), "Frodo Estate")
	assert.Contains(t, buf.String(), `content="2;url=/home"`)
}
