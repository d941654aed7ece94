package sysinfo

import (
	"strings"

	"github.com/pavi2410/droidkit/adb"
	"github.com/pavi2410/droidkit/parser"
)

// probe runs commands on one transport and remembers their decoded output, so
// that a report touching `dumpsys wifi` three times only asks the device once.
// A probe lives for a single report and is not safe for concurrent use.
type probe struct {
	t     adb.Transport
	cache map[string]*string
}

func newProbe(t adb.Transport) *probe {
	return &probe{t: t, cache: make(map[string]*string)}
}

// run returns the trimmed output of argv, or nil if the command failed.
func (p *probe) run(args ...string) *string {
	key := strings.Join(args, "\x00")
	if out, ok := p.cache[key]; ok {
		return out
	}

	var result *string
	if raw, err := p.t.Execute(args...); err == nil {
		text := strings.TrimSpace(adb.Decode(raw))
		result = &text
	}
	p.cache[key] = result
	return result
}

func (p *probe) prop(name string) *string {
	out := p.run("getprop", name)
	if out == nil {
		return nil
	}
	v := parser.Property(*out)
	return &v
}

// text is run with a failed command flattened to "", plus whether the
// command succeeded.
func (p *probe) text(args ...string) (string, bool) {
	out := p.run(args...)
	if out == nil {
		return "", false
	}
	return *out, true
}
