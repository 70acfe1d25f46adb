package badge

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zohouse/questbot/internal/models"
)

func testQuest() *models.Quest {
	return &models.Quest{
		ID:             "b3f7c1c2-1111-4222-8333-444455556666",
		Title:          "Morning Run Challenge",
		Description:    "Run 5km before 8am and snap the sunrise",
		ValidationType: models.ValidationPhoto,
		Points:         420,
		Deadline:       "2026-09-15",
	}
}

func TestRenderProducesExpectedCanvas(t *testing.T) {
	r := NewRenderer(t.TempDir()) // no fonts there, bitmap fallback

	data, err := r.Render(testQuest(), nil)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, CanvasWidth, img.Bounds().Dx())
	require.Equal(t, CanvasHeight, img.Bounds().Dy())
}

func TestRenderWithIcon(t *testing.T) {
	r := NewRenderer(t.TempDir())

	icon := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			icon.Set(x, y, color.NRGBA{200, 40, 40, 255})
		}
	}

	data, err := r.Render(testQuest(), icon)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, CanvasWidth, img.Bounds().Dx())
}

func TestRenderNilQuest(t *testing.T) {
	r := NewRenderer("")
	_, err := r.Render(nil, nil)
	require.Error(t, err)
}

func TestDisplayID(t *testing.T) {
	require.Equal(t, 123, DisplayID("123"))
	require.Equal(t, 42, DisplayID("1042"))
	require.Equal(t, DisplayID("abc-uuid"), DisplayID("abc-uuid"))
	uuidID := DisplayID("b3f7c1c2-1111-4222-8333-444455556666")
	require.GreaterOrEqual(t, uuidID, 0)
	require.Less(t, uuidID, 1000)
}

func TestTruncateWords(t *testing.T) {
	require.Equal(t, "one two three", TruncateWords("one two three four five", 3))
	require.Equal(t, "short", TruncateWords("short", 3))
	require.Equal(t, "", TruncateWords("", 3))
	require.Equal(t, "a b", TruncateWords("  a   b  ", 10))
}

func TestDeadlineLabel(t *testing.T) {
	require.Equal(t, "Everyday", DeadlineLabel("everyday"))
	require.Equal(t, "Everyday", DeadlineLabel(""))
	require.Equal(t, "2026-09-15", DeadlineLabel("2026-09-15"))
}
