package main

import (
	"io"
	"os"
	"time"

	"github.com/j3sv1n/zipclip-backend/internal/config"
	"github.com/j3sv1n/zipclip-backend/internal/ffmpeg"
	"github.com/j3sv1n/zipclip-backend/internal/overlays"
	"github.com/j3sv1n/zipclip-backend/internal/pipeline"
	"github.com/j3sv1n/zipclip-backend/internal/timeline"
	"github.com/j3sv1n/zipclip-backend/pkg/util"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

// newProgress returns a bar over seconds of output written, or nothing when
// stderr is not a terminal or debug logs would interleave with it
func newProgress(total float64, desc string) (*progressbar.ProgressBar, ffmpeg.ProgressFunc) {
	if verbose || !isatty.IsTerminal(os.Stderr.Fd()) || total <= 0 {
		return nil, nil
	}

	bar := progressbar.NewOptions64(int64(total*1000),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionFullWidth(),
	)

	return bar, func(p *ffmpeg.Progress) {
		ms := int64(p.OutTime * 1000)
		if ms > bar.GetMax64() {
			bar.ChangeMax64(ms)
		}
		_ = bar.Set64(ms)
	}
}

func finishProgress(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Finish()
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func printTimeline(w io.Writer, tl *timeline.Timeline) {
	t := newTable(w)
	t.SetTitle("timeline %dx%d @ %.2f fps", tl.Width, tl.Height, tl.FPS)
	t.AppendHeader(table.Row{"#", "Source", "Start", "End", "Transition In", "Diff", "Fade In", "Fade Out"})

	for i, c := range tl.Clips {
		kind, diff := "-", "-"
		if i > 0 {
			d := tl.Decisions[i-1]
			kind = d.Kind.String() + " " + formatFloat(d.Duration)
			if d.Downgraded {
				kind += " (downgraded)"
			}
			diff = formatFloat(d.Diff)
		}
		fadeIn := c.FadeIn
		if c.CrossfadeIn > 0 {
			fadeIn = c.CrossfadeIn
		}
		t.AppendRow(table.Row{
			i + 1,
			c.Segment.String(),
			util.FormatSeconds(c.Start),
			util.FormatSeconds(c.End()),
			kind,
			diff,
			formatFloat(fadeIn),
			formatFloat(c.FadeOut),
		})
	}
	t.AppendFooter(table.Row{"", "", "", util.FormatSeconds(tl.Duration), "", "", "", ""})
	t.Render()

	if len(tl.Overlays) == 0 {
		return
	}

	ot := newTable(w)
	ot.SetTitle("light leaks")
	ot.AppendHeader(table.Row{"Junction", "Start", "End", "Colour", "Max Alpha"})
	for _, o := range tl.Overlays {
		ot.AppendRow(table.Row{o.Junction + 1, util.FormatSeconds(o.Start), util.FormatSeconds(o.End()), o.Color, formatFloat(o.MaxAlpha)})
	}
	ot.Render()
}

func printRemap(w io.Writer, r *timeline.Remapper, times []float64) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Source", "Stitched"})
	for _, src := range times {
		out := "not present"
		if st, ok := r.MapToStitched(src); ok {
			out = formatFloat(st)
		}
		t.AppendRow(table.Row{formatFloat(src), out})
	}
	t.Render()
}

func printResults(w io.Writer, results []*pipeline.Result) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Input", "Output", "Duration", "Dropped", "Captions", "Error"})
	for _, r := range results {
		if r == nil {
			continue
		}
		if r.Err != nil {
			t.AppendRow(table.Row{r.Input, "", "", "", "", r.Err.Error()})
			continue
		}
		t.AppendRow(table.Row{r.Input, r.Output, util.FormatSeconds(r.Timeline.Duration), r.Dropped, r.Captions, ""})
	}
	t.Render()
}

func printOverlays(w io.Writer, cfg *config.Config) {
	registry := overlays.NewRegistry()
	for name, hex := range cfg.Overlays.Presets {
		if err := registry.RegisterHex(name, hex); err != nil {
			log.Warn().Err(err).Msg("skipping preset")
		}
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Style", "Colour", "Active"})
	for _, name := range registry.List() {
		c, _ := registry.Get(name)
		active := ""
		if name == cfg.LightLeak.Style && cfg.LightLeak.Color == "" {
			active = "*"
		}
		t.AppendRow(table.Row{name, overlays.Hex(c), active})
	}
	t.Render()
}
