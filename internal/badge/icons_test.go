package badge

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeIconPNG(t *testing.T, dir, name string, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(filepath.Join(dir, name+".png"))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestIconProviderLoadsCategory(t *testing.T) {
	dir := t.TempDir()
	writeIconPNG(t, dir, "Music", color.RGBA{R: 255, A: 255})
	writeIconPNG(t, dir, DefaultIconCategory, color.RGBA{B: 255, A: 255})

	p := NewIconProvider(dir)
	icon, err := p.Icon("Music")
	require.NoError(t, err)
	require.NotNil(t, icon)
	require.Equal(t, 4, icon.Bounds().Dx())
}

func TestIconProviderUnknownFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	writeIconPNG(t, dir, DefaultIconCategory, color.RGBA{B: 255, A: 255})

	p := NewIconProvider(dir)

	def, err := p.Icon("")
	require.NoError(t, err)
	require.NotNil(t, def)

	unknown, err := p.Icon("No Such Category")
	require.NoError(t, err)
	require.Same(t, def, unknown)
}

func TestIconProviderMissingFileFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	writeIconPNG(t, dir, DefaultIconCategory, color.RGBA{G: 255, A: 255})

	p := NewIconProvider(dir)
	icon, err := p.Icon("Music")
	require.NoError(t, err)
	require.NotNil(t, icon)
}

func TestIconProviderMissingDefaultErrors(t *testing.T) {
	p := NewIconProvider(t.TempDir())
	_, err := p.Icon("")
	require.Error(t, err)
}

func TestIconProviderCachesIcons(t *testing.T) {
	dir := t.TempDir()
	writeIconPNG(t, dir, "Games", color.RGBA{R: 10, A: 255})
	writeIconPNG(t, dir, DefaultIconCategory, color.RGBA{B: 255, A: 255})

	p := NewIconProvider(dir)
	first, err := p.Icon("Games")
	require.NoError(t, err)

	// A removed file no longer matters once the icon is cached.
	require.NoError(t, os.Remove(filepath.Join(dir, "Games.png")))
	second, err := p.Icon("Games")
	require.NoError(t, err)
	require.Same(t, first, second)
}

func TestIconCategoriesSorted(t *testing.T) {
	p := NewIconProvider(t.TempDir())
	names := p.Categories()
	require.Len(t, names, len(IconCategories))
	require.Contains(t, names, DefaultIconCategory)
	for i := 1; i < len(names); i++ {
		require.Less(t, names[i-1], names[i])
	}
}
