// Package nav decides the shape of the layout shell and which side
// navigation entry is active for a route.
package nav

import "fmt"

// TypeBar is the layout type that shows the side panel.
const TypeBar = "bar"

// Item is one navigation entry. Key is the route path and doubles as the
// identity used for active-route matching. Selecting the item navigates to Href.
type Item struct {
	Key   string
	Label string
	Href  string
}

// Menu is an ordered list of items; order is display order.
type Menu []Item

// Validate reports the first key that appears twice.
func (m Menu) Validate() error {
	seen := make(map[string]struct{}, len(m))
	for _, it := range m {
		if _, dup := seen[it.Key]; dup {
			return fmt.Errorf("nav: duplicate menu key %q", it.Key)
		}
		seen[it.Key] = struct{}{}
	}
	return nil
}

// Layout owns the primary and user menus and a free-form display type.
type Layout struct {
	Type    string
	Primary Menu
	User    Menu
}

// ShowSidebar reports whether the side panel is rendered.
func (l Layout) ShowSidebar() bool {
	return (len(l.Primary) > 0 || len(l.User) > 0) && l.Type == TypeBar
}

type ItemView struct {
	Item
	Selected bool
}

// SidebarView is what the side panel template renders.
type SidebarView struct {
	Primary     []ItemView
	User        []ItemView
	ShowDivider bool
}

// Sidebar marks the item whose key equals path exactly. No prefix matching.
func (l Layout) Sidebar(path string) SidebarView {
	return SidebarView{
		Primary:     mark(l.Primary, path),
		User:        mark(l.User, path),
		ShowDivider: len(l.User) > 0,
	}
}

// Selected returns the key of the active item, or "" when nothing matches.
func (v SidebarView) Selected() string {
	for _, group := range [][]ItemView{v.Primary, v.User} {
		for _, it := range group {
			if it.Selected {
				return it.Key
			}
		}
	}
	return ""
}

func mark(m Menu, path string) []ItemView {
	if len(m) == 0 {
		return nil
	}
	out := make([]ItemView, len(m))
	for i, it := range m {
		out[i] = ItemView{Item: it, Selected: it.Key == path}
	}
	return out
}
