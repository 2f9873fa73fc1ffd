package captions

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/j3sv1n/zipclip-backend/internal/overlays"
)

// Style controls how captions look once burned in
type Style struct {
	FontName     string
	FontSize     int // 0 picks 5% of the frame height
	FontColor    string
	OutlineWidth int
	// Position is the vertical anchor as a fraction of frame height
	Position float64
	Width    int
	Height   int
}

func (s Style) fontSize() int {
	if s.FontSize > 0 {
		return s.FontSize
	}
	return max(int(float64(s.Height)*0.05), 12)
}

func (s Style) marginV() int {
	pos := s.Position
	if pos <= 0 || pos >= 1 {
		pos = 0.9
	}
	return int(float64(s.Height) * (1 - pos))
}

// assColour converts "#RRGGBB" to ASS &H00BBGGRR
func assColour(hex string) string {
	c, err := overlays.ParseColor(hex)
	if err != nil {
		return "&H00FFFFFF"
	}
	return fmt.Sprintf("&H00%02X%02X%02X", c.B, c.G, c.R)
}

// WriteASS renders windows as an Advanced SubStation script
func WriteASS(w io.Writer, windows []Window, style Style) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "[Script Info]\nScriptType: v4.00+\nPlayResX: %d\nPlayResY: %d\nScaledBorderAndShadow: yes\n\n", style.Width, style.Height)
	bw.WriteString("[V4+ Styles]\n")
	bw.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(bw, "Style: Caption,%s,%d,%s,&H000000FF,&H00000000,&H64000000,-1,0,0,0,100,100,0,0,1,%d,0,2,40,40,%d,1\n\n",
		style.FontName, style.fontSize(), assColour(style.FontColor), style.OutlineWidth, style.marginV())

	bw.WriteString("[Events]\n")
	bw.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, win := range windows {
		text := sanitizeASS(win.Text)
		if win.Fade > 0 {
			ms := int(win.Fade * 1000)
			text = fmt.Sprintf("{\\fad(%d,%d)}%s", ms, ms, text)
		}
		fmt.Fprintf(bw, "Dialogue: 0,%s,%s,Caption,,0,0,0,,%s\n", assTime(win.Start), assTime(win.End), text)
	}

	return bw.Flush()
}

// WriteASSFile writes the script to path
func WriteASSFile(path string, windows []Window, style Style) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create subtitle file: %w", err)
	}
	if err := WriteASS(f, windows, style); err != nil {
		f.Close()
		return fmt.Errorf("write subtitle file: %w", err)
	}
	return f.Close()
}

// assTime formats seconds as H:MM:SS.cc
func assTime(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	cs := int(sec*100 + 0.5)
	h := cs / 360000
	cs -= h * 360000
	m := cs / 6000
	cs -= m * 6000
	s := cs / 100
	cs -= s * 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

func sanitizeASS(s string) string {
	// ASS has no escape for a backslash; \N, \n and \h would become control codes
	s = strings.ReplaceAll(s, "\\", "")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
