package badge

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/zohouse/questbot/internal/models"
)

// Badge geometry. The canvas carries a 10px margin on each side for the
// drop shadow, so the output PNG is 820x520.
const (
	badgeWidth   = 800
	badgeHeight  = 500
	shadowMargin = 10
	cornerRadius = 30
	borderWidth  = 8

	CanvasWidth  = badgeWidth + 2*shadowMargin
	CanvasHeight = badgeHeight + 2*shadowMargin
)

var (
	borderPrimary   = color.NRGBA{75, 85, 180, 255}
	borderSecondary = color.NRGBA{130, 60, 180, 255}
	borderTertiary  = color.NRGBA{60, 100, 200, 255}
	pointsPillColor = color.NRGBA{130, 60, 180, 255}
	inkColor        = color.NRGBA{0, 0, 0, 255}
)

// Renderer composites quest badges. FontsDir should contain the Montserrat
// TTF files; when they are missing the renderer falls back to a bitmap face
// so rendering still succeeds.
type Renderer struct {
	FontsDir string
}

func NewRenderer(fontsDir string) *Renderer {
	if fontsDir == "" {
		fontsDir = "fonts"
	}
	return &Renderer{FontsDir: fontsDir}
}

// Render draws the badge for a quest and returns PNG bytes. icon may be nil.
func (r *Renderer) Render(quest *models.Quest, icon image.Image) ([]byte, error) {
	if quest == nil {
		return nil, fmt.Errorf("quest is required")
	}

	dc := gg.NewContext(CanvasWidth, CanvasHeight)

	r.drawShadow(dc)
	r.drawBorderAndCard(dc)

	titleFace := r.face("Montserrat-Bold.ttf", 50)
	logoFace := r.face("Montserrat-ExtraBold.ttf", 65)
	headerFace := r.face("Montserrat-Bold.ttf", 32)
	bodyFace := r.face("Montserrat-Medium.ttf", 26)
	smallFace := r.face("Montserrat-Medium.ttf", 24)
	pointsFace := r.face("Montserrat-Bold.ttf", 80)

	dc.SetColor(inkColor)

	// Logo top-left.
	dc.SetFontFace(logoFace)
	dc.DrawStringAnchored(`\z/`, shadowMargin+40, shadowMargin+30, 0, 1)

	// Quest ID top-right.
	dc.SetFontFace(smallFace)
	idText := fmt.Sprintf("Quest ID: %03d", DisplayID(quest.ID))
	idW, _ := dc.MeasureString(idText)
	dc.DrawStringAnchored(idText, shadowMargin+badgeWidth-40-idW, shadowMargin+40, 0, 1)

	// Title, at most two lines.
	dc.SetFontFace(titleFace)
	titleMax := float64(badgeWidth - 80)
	y := float64(shadowMargin + 160)
	for _, line := range wrapToWidth(dc, TruncateWords(quest.Title, 3), titleMax, 2) {
		dc.DrawStringAnchored(line, shadowMargin+40, y, 0, 1)
		y += 55
	}

	// Description below the title.
	dc.SetFontFace(bodyFace)
	descMax := float64(badgeWidth - 80)
	for _, line := range wrapToWidth(dc, TruncateWords(quest.Description, 10), descMax, 2) {
		dc.DrawStringAnchored(line, shadowMargin+40, y+10, 0, 1)
		y += 34
	}

	// Points pill bottom-right; measured first so the action text can wrap
	// around it.
	dc.SetFontFace(pointsFace)
	pointsText := strconv.Itoa(quest.Points)
	ptsW, ptsH := dc.MeasureString(pointsText)
	pillW := ptsW + 60
	pillH := ptsH + 40
	pillX := float64(shadowMargin+badgeWidth-40) - pillW
	pillY := float64(shadowMargin+badgeHeight-40) - pillH

	infoY := float64(shadowMargin + 340)

	dc.SetFontFace(headerFace)
	dc.DrawStringAnchored("Action:", shadowMargin+40, infoY, 0, 1)
	actionLabelW, _ := dc.MeasureString("Action:")

	dc.SetFontFace(bodyFace)
	actionX := shadowMargin + 40 + actionLabelW + 25
	actionMax := pillX - actionX - 20
	actionY := infoY + 4
	for _, line := range wrapToWidth(dc, quest.ValidationLabel(), actionMax, 2) {
		dc.DrawStringAnchored(line, actionX, actionY, 0, 1)
		actionY += 28
	}

	deadlineY := infoY + 70
	dc.SetFontFace(headerFace)
	dc.DrawStringAnchored("Deadline:", shadowMargin+40, deadlineY, 0, 1)
	deadlineLabelW, _ := dc.MeasureString("Deadline:")
	dc.SetFontFace(bodyFace)
	dc.DrawStringAnchored(DeadlineLabel(quest.Deadline), shadowMargin+40+deadlineLabelW+25, deadlineY+4, 0, 1)

	// Icon above the pill, half again as wide.
	if icon != nil {
		iconSize := pillW * 1.5
		scaled := scaleTo(icon, int(iconSize))
		iconX := pillX + (pillW-iconSize)/2
		iconY := pillY - iconSize - 15
		dc.DrawImageAnchored(scaled, int(iconX+iconSize/2), int(iconY+iconSize/2), 0.5, 0.5)
	}

	// The pill itself.
	dc.SetColor(color.NRGBA{0, 0, 0, 180})
	dc.DrawRoundedRectangle(pillX-3, pillY-3, pillW+6, pillH+6, (pillH+6)/2)
	dc.Fill()
	dc.SetColor(pointsPillColor)
	dc.DrawRoundedRectangle(pillX, pillY, pillW, pillH, pillH/2)
	dc.Fill()
	dc.SetColor(color.NRGBA{255, 255, 255, 255})
	dc.SetFontFace(pointsFace)
	dc.DrawStringAnchored(pointsText, pillX+pillW/2, pillY+pillH/2, 0.5, 0.35)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("encode badge png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawShadow(dc *gg.Context) {
	dc.SetColor(color.NRGBA{0, 0, 0, 80})
	dc.DrawRoundedRectangle(shadowMargin+6, shadowMargin+6, badgeWidth, badgeHeight, cornerRadius)
	dc.Fill()
}

// drawBorderAndCard paints the gradient border ring and the white card on
// top of it. The gradient runs diagonally through the three theme colors,
// approximating the segmented border of the design.
func (r *Renderer) drawBorderAndCard(dc *gg.Context) {
	grad := gg.NewLinearGradient(shadowMargin, shadowMargin, shadowMargin+badgeWidth, shadowMargin+badgeHeight)
	grad.AddColorStop(0, borderPrimary)
	grad.AddColorStop(0.4, borderSecondary)
	grad.AddColorStop(0.7, borderTertiary)
	grad.AddColorStop(1, borderPrimary)

	dc.SetFillStyle(grad)
	dc.DrawRoundedRectangle(shadowMargin, shadowMargin, badgeWidth, badgeHeight, cornerRadius)
	dc.Fill()

	dc.SetColor(color.NRGBA{255, 255, 255, 255})
	dc.DrawRoundedRectangle(
		shadowMargin+borderWidth, shadowMargin+borderWidth,
		badgeWidth-2*borderWidth, badgeHeight-2*borderWidth,
		cornerRadius-borderWidth,
	)
	dc.Fill()
}

func (r *Renderer) face(file string, points float64) font.Face {
	face, err := gg.LoadFontFace(filepath.Join(r.FontsDir, file), points)
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}

// DisplayID reduces a quest ID to the three-digit number shown on the badge.
// Numeric IDs pass through mod 1000; UUIDs hash down to the same range.
func DisplayID(questID string) int {
	if n, err := strconv.Atoi(questID); err == nil {
		if n < 0 {
			n = -n
		}
		return n % 1000
	}
	hash := 0
	for _, r := range questID {
		hash = (hash*31 + int(r)) % 1000
	}
	return hash
}

// TruncateWords keeps at most n words of s.
func TruncateWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ")
}

// DeadlineLabel renders the stored deadline for display.
func DeadlineLabel(deadline string) string {
	if deadline == models.DeadlineEveryday || deadline == "" {
		return "Everyday"
	}
	return deadline
}

// wrapToWidth splits text into at most maxLines lines that each fit within
// maxWidth under the context's current font face.
func wrapToWidth(dc *gg.Context, text string, maxWidth float64, maxLines int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		test := current + " " + word
		if w, _ := dc.MeasureString(test); w <= maxWidth {
			current = test
			continue
		}
		lines = append(lines, current)
		current = word
		if len(lines) == maxLines-1 {
			break
		}
	}
	lines = append(lines, current)
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return lines
}

func scaleTo(img image.Image, size int) image.Image {
	dc := gg.NewContext(size, size)
	b := img.Bounds()
	sx := float64(size) / float64(b.Dx())
	sy := float64(size) / float64(b.Dy())
	dc.Scale(sx, sy)
	dc.DrawImage(img, 0, 0)
	return dc.Image()
}
