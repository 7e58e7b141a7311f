package debug

import (
	"os"
	"strconv"
)

type debug struct {
	Locate    bool
	Reconcile bool
	Rewrite   bool
	Rules     bool
}

var d *debug

func init() {
	d = &debug{}
	d.Locate = boolEnv("XRC_DEBUG_LOCATE")
	d.Reconcile = boolEnv("XRC_DEBUG_RECONCILE")
	d.Rewrite = boolEnv("XRC_DEBUG_REWRITE")
	d.Rules = boolEnv("XRC_DEBUG_RULES")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Locate() bool {
	return d.Locate
}
func Reconcile() bool {
	return d.Reconcile
}
func Rewrite() bool {
	return d.Rewrite
}
func Rules() bool {
	return d.Rules
}
