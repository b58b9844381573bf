package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/justyntemme/gosampler/pkg/framework/debug"
	"github.com/justyntemme/gosampler/pkg/framework/voice"
	"github.com/justyntemme/gosampler/pkg/midi"
)

// SFZRegion is one <region> with its inherited opcodes resolved. Bounds that
// were missing or malformed are voice.Unset.
type SFZRegion struct {
	Sample      string
	KeyLow      int
	KeyHigh     int
	VelLow      int
	VelHigh     int
	PitchCenter int
}

// Headers and opcode names. An opcode value runs until the next opcode or
// header, so sample paths may contain spaces.
var sfzToken = regexp.MustCompile(`<(\w+)>|(\w+)=`)

type sfzScope int

const (
	scopeNone sfzScope = iota
	scopeControl
	scopeGlobal
	scopeGroup
	scopeRegion
)

type sfzParser struct {
	scope       sfzScope
	defaultPath string
	global      map[string]string
	group       map[string]string
	region      map[string]string
	regions     []SFZRegion
}

// ParseSFZ reads the region list of an SFZ file. It understands <control>,
// <global>, <group> and <region> headers, the default_path, sample, lokey,
// hikey, key, lovel, hivel and pitch_keycenter opcodes, and // comments.
// Other opcodes are ignored.
func ParseSFZ(r io.Reader) ([]SFZRegion, error) {
	p := &sfzParser{
		global: map[string]string{},
		group:  map[string]string{},
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		p.parseLine(line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: read SFZ: %w", ErrLoadFailed, err)
	}
	p.closeRegion()
	return p.regions, nil
}

func (p *sfzParser) parseLine(line string) {
	matches := sfzToken.FindAllStringSubmatchIndex(line, -1)
	for i, m := range matches {
		if m[2] >= 0 {
			p.header(line[m[2]:m[3]])
			continue
		}
		end := len(line)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		p.opcode(line[m[4]:m[5]], strings.TrimSpace(line[m[1]:end]))
	}
}

func (p *sfzParser) header(name string) {
	p.closeRegion()
	switch strings.ToLower(name) {
	case "control":
		p.scope = scopeControl
	case "global":
		p.scope = scopeGlobal
		p.global = map[string]string{}
	case "group", "master":
		p.scope = scopeGroup
		p.group = map[string]string{}
	case "region":
		p.scope = scopeRegion
		p.region = map[string]string{}
	default:
		p.scope = scopeNone
	}
}

func (p *sfzParser) opcode(name, value string) {
	name = strings.ToLower(name)
	switch p.scope {
	case scopeControl:
		if name == "default_path" {
			p.defaultPath = value
		}
	case scopeGlobal:
		p.global[name] = value
	case scopeGroup:
		p.group[name] = value
	case scopeRegion:
		p.region[name] = value
	}
}

func (p *sfzParser) closeRegion() {
	if p.region == nil {
		return
	}
	lookup := func(name string) (string, bool) {
		for _, scope := range []map[string]string{p.region, p.group, p.global} {
			if v, ok := scope[name]; ok {
				return v, true
			}
		}
		return "", false
	}
	p.region = nil

	sample, ok := lookup("sample")
	if !ok || sample == "" {
		return
	}
	sample = strings.ReplaceAll(p.defaultPath+sample, `\`, "/")

	r := SFZRegion{
		Sample:      sample,
		KeyLow:      voice.Unset,
		KeyHigh:     voice.Unset,
		VelLow:      voice.Unset,
		VelHigh:     voice.Unset,
		PitchCenter: voice.Unset,
	}
	if v, ok := lookup("key"); ok {
		key := parseKey(v)
		r.KeyLow, r.KeyHigh, r.PitchCenter = key, key, key
	}
	if v, ok := lookup("lokey"); ok {
		r.KeyLow = parseKey(v)
	}
	if v, ok := lookup("hikey"); ok {
		r.KeyHigh = parseKey(v)
	}
	if v, ok := lookup("pitch_keycenter"); ok {
		r.PitchCenter = parseKey(v)
	}
	if v, ok := lookup("lovel"); ok {
		r.VelLow = parseVelocity(v)
	}
	if v, ok := lookup("hivel"); ok {
		r.VelHigh = parseVelocity(v)
	}
	p.regions = append(p.regions, r)
}

// parseKey accepts a note number or name. Malformed values are unset.
func parseKey(s string) int {
	n, err := midi.ParseNote(s)
	if err != nil {
		return voice.Unset
	}
	return int(n)
}

func parseVelocity(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 || n > 127 {
		return voice.Unset
	}
	return n
}

// LoadSFZ parses an SFZ file and decodes every referenced sample, resolved
// relative to the SFZ file. Samples shared by several regions are decoded
// once.
func LoadSFZ(path string) ([]voice.Region, error) {
	resolved, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(resolved)
	if err != nil {
		return nil, wrap(path, err)
	}
	defer func() { _ = f.Close() }()

	parsed, err := ParseSFZ(f)
	if err != nil {
		return nil, wrap(path, err)
	}
	if len(parsed) == 0 {
		return nil, wrap(path, fmt.Errorf("%w: no playable regions", ErrLoadFailed))
	}

	dir := filepath.Dir(resolved)
	cache := make(map[string]*Source)
	regions := make([]voice.Region, 0, len(parsed))
	for i, pr := range parsed {
		samplePath := filepath.FromSlash(pr.Sample)
		if !filepath.IsAbs(samplePath) {
			samplePath = filepath.Join(dir, samplePath)
		}

		src, ok := cache[samplePath]
		if !ok {
			src, err = LoadFile(samplePath)
			if err != nil {
				return nil, fmt.Errorf("%s region %d: %w", path, i, err)
			}
			cache[samplePath] = src
		}

		r := voice.NewRegion(src.Samples, src.SampleRate)
		r.Name = pr.Sample
		r.KeyLow, r.KeyHigh = pr.KeyLow, pr.KeyHigh
		r.VelLow, r.VelHigh = pr.VelLow, pr.VelHigh
		r.PitchCenter = pr.PitchCenter
		regions = append(regions, r)
	}
	debug.Debug("Loaded SFZ %s: %d regions from %d samples", path, len(regions), len(cache))
	return regions, nil
}
