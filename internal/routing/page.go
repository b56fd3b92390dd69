// Package routing describes the places a navigation history records.
package routing

import (
	"path"
	"strings"
)

// PageInfo identifies a page and an optional fragment within it. It is
// comparable, so it can be stored in a navigation.Stack directly.
type PageInfo struct {
	Name     string // slash-separated path relative to the page root
	Fragment string
}

// ParsePageInfo splits ref ("guide/intro#setup") into a cleaned page name and
// a fragment. A ref that is only a fragment has an empty Name.
func ParsePageInfo(ref string) PageInfo {
	ref = strings.TrimSpace(ref)
	name, frag, _ := strings.Cut(ref, "#")
	if name != "" {
		name = strings.TrimPrefix(path.Clean("/"+name), "/")
	}
	return PageInfo{Name: name, Fragment: frag}
}

// Resolve interprets ref relative to the directory of p. Fragment-only refs
// stay on p.
func (p PageInfo) Resolve(ref string) PageInfo {
	target := ParsePageInfo(ref)
	if target.Name == "" {
		return PageInfo{Name: p.Name, Fragment: target.Fragment}
	}
	if strings.HasPrefix(strings.TrimSpace(ref), "/") {
		return target
	}
	name, frag, _ := strings.Cut(strings.TrimSpace(ref), "#")
	return ParsePageInfo(path.Join(path.Dir(p.Name), name) + fragSuffix(frag))
}

// IsZero reports whether p names no page.
func (p PageInfo) IsZero() bool {
	return p.Name == "" && p.Fragment == ""
}

func (p PageInfo) String() string {
	return p.Name + fragSuffix(p.Fragment)
}

func fragSuffix(frag string) string {
	if frag == "" {
		return ""
	}
	return "#" + frag
}
