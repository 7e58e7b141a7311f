package libdiff

import (
	"strings"

	"github.com/fatih/color"
)

type ColorAttr int

const (
	FileColor ColorAttr = iota
	HunkColor
	DeleteColor
	InsertColor
)

type Colors struct {
	Default func(string, ...any) string
	Map     map[ColorAttr]func(string, ...any) string
}

func NewColors() *Colors {
	colors := &Colors{
		Default: colorDefault,
		Map: map[ColorAttr]func(string, ...any) string{
			FileColor:   color.New(color.Bold).SprintfFunc(),
			HunkColor:   color.CyanString,
			DeleteColor: color.RedString,
			InsertColor: color.GreenString,
		},
	}
	for k, f := range colors.Map {
		colors.Map[k] = func(v string, _ ...any) string {
			return f(strings.ReplaceAll(v, "%", "%%"))
		}
	}
	return colors
}

func colorDefault(v string, _ ...any) string { return v }

func (c *Colors) Color(a ColorAttr, s string) string {
	if c == nil {
		return s
	}
	f := c.Map[a]
	if f == nil {
		return c.Default(s)
	}
	return f(s)
}
