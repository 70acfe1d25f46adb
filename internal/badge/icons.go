package badge

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// IconCategories are the preset badge icons an admin can pick during quest
// creation. Each name maps to "<name>.png" in the icons directory.
var IconCategories = []string{
	"Business",
	"Cinema",
	"Content",
	"Design",
	"Follow your Heart",
	"Food",
	"Games",
	"Health & Fitness",
	"Law & Order",
	"Lifestyle",
	"Literature",
	"Music",
	"Nature & Wildlife",
	"Podcast",
	"Science & tech",
	"Spiritual",
	"Sports",
	"Storytelling",
	"Travel & Adventure",
}

// DefaultIconCategory is served for unknown or empty category names.
const DefaultIconCategory = "Spiritual"

// IconProvider loads preset icon PNGs from a directory and caches decoded
// images in memory. Unknown categories fall back to the default icon.
type IconProvider struct {
	dir string

	mu    sync.Mutex
	cache map[string]image.Image
}

func NewIconProvider(dir string) *IconProvider {
	if dir == "" {
		dir = filepath.Join("fonts", "Color Symbols")
	}
	return &IconProvider{
		dir:   dir,
		cache: make(map[string]image.Image),
	}
}

// Icon returns the decoded icon for a category. An empty or unknown category
// resolves to the default; a load failure for a known category also falls
// back to the default before giving up.
func (p *IconProvider) Icon(category string) (image.Image, error) {
	if !knownCategory(category) {
		category = DefaultIconCategory
	}

	icon, err := p.load(category)
	if err != nil && category != DefaultIconCategory {
		return p.load(DefaultIconCategory)
	}
	return icon, err
}

// Categories returns the selectable category names, sorted.
func (p *IconProvider) Categories() []string {
	names := make([]string, len(IconCategories))
	copy(names, IconCategories)
	sort.Strings(names)
	return names
}

func (p *IconProvider) load(category string) (image.Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if icon, ok := p.cache[category]; ok {
		return icon, nil
	}

	f, err := os.Open(filepath.Join(p.dir, category+".png"))
	if err != nil {
		return nil, fmt.Errorf("open icon %q: %w", category, err)
	}
	defer f.Close()

	icon, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode icon %q: %w", category, err)
	}
	p.cache[category] = icon
	return icon, nil
}

func knownCategory(category string) bool {
	for _, name := range IconCategories {
		if name == category {
			return true
		}
	}
	return false
}
