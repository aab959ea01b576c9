package renderer

import (
	"math"
	"os"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontSet names the TrueType files used for regular and bold text
type FontSet struct {
	Regular string
	Bold    string
}

var systemRegularFonts = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSansMono.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationMono-Regular.ttf",
	"/usr/share/fonts/TTF/DejaVuSansMono.ttf",
	"/System/Library/Fonts/Supplemental/Courier New.ttf",
	"/Library/Fonts/Courier New.ttf",
	"C:\\Windows\\Fonts\\cour.ttf",
	"C:\\Windows\\Fonts\\consola.ttf",
}

var systemBoldFonts = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSansMono-Bold.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationMono-Bold.ttf",
	"/usr/share/fonts/TTF/DejaVuSansMono-Bold.ttf",
	"/System/Library/Fonts/Supplemental/Courier New Bold.ttf",
	"/Library/Fonts/Courier New Bold.ttf",
	"C:\\Windows\\Fonts\\courbd.ttf",
	"C:\\Windows\\Fonts\\consolab.ttf",
}

type faceKey struct {
	bold bool
	size float64
}

// loadedFont is the font picked for one weight. A nil font means the built-in
// face. faux marks a bold weight drawn from a regular font.
type loadedFont struct {
	font *truetype.Font
	faux bool
}

// fontLoader parses each TrueType file once. Parsed fonts are read-only and
// shared by all renders.
type fontLoader struct {
	set FontSet

	mu       sync.Mutex
	byPath   map[string]*truetype.Font // nil entries failed to load
	byWeight map[bool]loadedFont
}

func newFontLoader(set FontSet) *fontLoader {
	return &fontLoader{
		set:      set,
		byPath:   make(map[string]*truetype.Font),
		byWeight: make(map[bool]loadedFont),
	}
}

// resolve returns the font used for regular or bold text
func (l *fontLoader) resolve(bold bool) loadedFont {
	l.mu.Lock()
	defer l.mu.Unlock()

	if f, ok := l.byWeight[bold]; ok {
		return f
	}
	f := l.pick(bold)
	l.byWeight[bold] = f
	return f
}

func (l *fontLoader) pick(bold bool) loadedFont {
	if !bold {
		return loadedFont{font: l.first(l.set.Regular, systemRegularFonts)}
	}

	switch {
	case l.set.Bold != "":
		if f := l.parse(l.set.Bold); f != nil {
			return loadedFont{font: f}
		}
	case l.set.Regular != "":
		if f := l.parse(l.set.Regular); f != nil {
			return loadedFont{font: f, faux: true}
		}
	}
	if f := l.first("", systemBoldFonts); f != nil {
		return loadedFont{font: f}
	}
	if f := l.first("", systemRegularFonts); f != nil {
		return loadedFont{font: f, faux: true}
	}
	return loadedFont{faux: true}
}

func (l *fontLoader) first(preferred string, fallbacks []string) *truetype.Font {
	if preferred != "" {
		if f := l.parse(preferred); f != nil {
			return f
		}
	}
	for _, path := range fallbacks {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if f := l.parse(path); f != nil {
			return f
		}
	}
	return nil
}

func (l *fontLoader) parse(path string) *truetype.Font {
	if f, ok := l.byPath[path]; ok {
		return f
	}
	var f *truetype.Font
	if data, err := os.ReadFile(path); err == nil {
		f, _ = truetype.Parse(data)
	}
	l.byPath[path] = f
	return f
}

type cachedFace struct {
	face font.Face
	faux bool
}

// faceCache builds each (weight, size) face once per render. Faces keep glyph
// caches of their own and are not shared across renders.
type faceCache struct {
	loader *fontLoader
	faces  map[faceKey]cachedFace
}

func newFaceCache(loader *fontLoader) *faceCache {
	return &faceCache{loader: loader, faces: make(map[faceKey]cachedFace)}
}

// face returns a face of the given pixel size and whether bold must be
// simulated. When no TrueType file loads it returns the fixed-size built-in
// face.
func (fc *faceCache) face(bold bool, size float64) (font.Face, bool) {
	key := faceKey{bold: bold, size: math.Round(size*100) / 100}
	if f, ok := fc.faces[key]; ok {
		return f.face, f.faux
	}

	loaded := fc.loader.resolve(bold)
	f := cachedFace{face: basicfont.Face7x13, faux: bold}
	if loaded.font != nil {
		f = cachedFace{face: truetype.NewFace(loaded.font, &truetype.Options{Size: key.size}), faux: loaded.faux}
	}
	fc.faces[key] = f
	return f.face, f.faux
}
