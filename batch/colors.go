package batch

import (
	"strings"

	"github.com/fatih/color"
)

type Colors struct {
	Default func(string, ...any) string
	Map     map[State]func(string, ...any) string
	Warn    func(string, ...any) string
	Error   func(string, ...any) string
}

func NewColors() *Colors {
	colors := &Colors{
		Default: colorDefault,
		Map: map[State]func(string, ...any) string{
			Validated: color.CyanString,
			Written:   color.GreenString,
			Rejected:  color.New(color.FgRed, color.Bold).SprintfFunc(),
		},
		Warn:  color.YellowString,
		Error: color.RedString,
	}
	for k, f := range colors.Map {
		colors.Map[k] = escaped(f)
	}
	colors.Warn = escaped(colors.Warn)
	colors.Error = escaped(colors.Error)
	return colors
}

func escaped(f func(string, ...any) string) func(string, ...any) string {
	return func(v string, _ ...any) string {
		return f(strings.ReplaceAll(v, "%", "%%"))
	}
}

func colorDefault(v string, _ ...any) string { return v }

func (c *Colors) state(s State) string {
	if c == nil {
		return s.String()
	}
	if f := c.Map[s]; f != nil {
		return f(s.String())
	}
	return c.Default(s.String())
}

func (c *Colors) warn(s string) string {
	if c == nil {
		return s
	}
	return c.Warn(s)
}

func (c *Colors) err(s string) string {
	if c == nil {
		return s
	}
	return c.Error(s)
}
