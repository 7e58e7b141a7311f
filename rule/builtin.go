package rule

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed sets/*.yaml
var sets embed.FS

func init() {
	files, err := fs.Glob(sets, "sets/*.yaml")
	if err != nil {
		panic(err)
	}
	for _, f := range files {
		d, err := sets.ReadFile(f)
		if err != nil {
			panic(err)
		}
		t, err := Parse(d)
		if err != nil {
			panic(fmt.Sprintf("%s: %v", f, err))
		}
		if err := Register(t); err != nil {
			panic(err)
		}
	}
}
