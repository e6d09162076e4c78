package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/chzyer/readline"
	"github.com/dustin/go-humanize"
	"github.com/stwalsh4118/fairshare/internal/catalog"
	"github.com/stwalsh4118/fairshare/internal/models"
	"github.com/stwalsh4118/fairshare/internal/studio"
)

const defaultBarWidth = 60

// shell drives one local studio session from typed commands
type shell struct {
	session *studio.Session
	notices *noticeLog
	out     io.Writer
	width   int

	mu      sync.Mutex
	unwatch func()
	done    chan struct{}
}

func newShell(session *studio.Session, notices *noticeLog, out io.Writer, width int) *shell {
	if width <= 0 {
		width = defaultBarWidth
	}
	return &shell{
		session: session,
		notices: notices,
		out:     out,
		width:   width,
	}
}

func (sh *shell) completer() readline.AutoCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("play"),
		readline.PcItem("rewind"),
		readline.PcItem("seek"),
		readline.PcItem("close"),
		readline.PcItem("load"),
		readline.PcItem("status"),
		readline.PcItem("clips"),
		readline.PcItem("ruler"),
		readline.PcItem("export"),
		readline.PcItem("notices"),
		readline.PcItem("watch",
			readline.PcItem("on"),
			readline.PcItem("off"),
		),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

func (sh *shell) showHelp() {
	fmt.Fprintf(sh.out, "Commands:\n")
	fmt.Fprintf(sh.out, "  play                 Toggle playback\n")
	fmt.Fprintf(sh.out, "  rewind               Move the playhead to 0:00\n")
	fmt.Fprintf(sh.out, "  seek <m:ss|seconds>  Move the playhead\n")
	fmt.Fprintf(sh.out, "  close                Dismiss the attribution overlay\n")
	fmt.Fprintf(sh.out, "  load <file>          Import a catalog (.json, .yaml, .toml)\n")
	fmt.Fprintf(sh.out, "  status               Show playback, timeline and overlay\n")
	fmt.Fprintf(sh.out, "  clips                List the catalog\n")
	fmt.Fprintf(sh.out, "  ruler                Show timeline marks\n")
	fmt.Fprintf(sh.out, "  export               Print the attribution credit sheet\n")
	fmt.Fprintf(sh.out, "  notices [n]          Show recent notices\n")
	fmt.Fprintf(sh.out, "  watch [on|off]       Print the timeline on every change\n")
	fmt.Fprintf(sh.out, "  help                 Show this help\n")
	fmt.Fprintf(sh.out, "  exit                 Leave the studio\n")
}

// handleCommand runs one input line and reports whether the shell should
// keep reading
func (sh *shell) handleCommand(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "exit", "quit", "q":
		fmt.Fprintln(sh.out, "Leaving the studio...")
		return false

	case "help", "h":
		sh.showHelp()

	case "play", "p":
		state, err := sh.session.PlayToggle()
		if err != nil {
			sh.fail(err)
			break
		}
		if state.IsPlaying {
			fmt.Fprintf(sh.out, "▶ Playing from %s\n", models.FormatSeconds(state.CurrentTime))
		} else {
			fmt.Fprintf(sh.out, "⏸ Paused at %s\n", models.FormatSeconds(state.CurrentTime))
		}

	case "rewind", "r":
		if _, err := sh.session.SeekToStart(); err != nil {
			sh.fail(err)
			break
		}
		fmt.Fprintln(sh.out, "⏮ Back to 0:00")

	case "seek":
		if len(args) == 0 {
			fmt.Fprintln(sh.out, "Usage: seek <m:ss|seconds>")
			break
		}
		t, err := models.ParseTimecode(args[0])
		if err != nil {
			sh.fail(err)
			break
		}
		state, err := sh.session.Seek(t)
		if err != nil {
			sh.fail(err)
			break
		}
		fmt.Fprintf(sh.out, "Playhead at %s\n", models.FormatSeconds(state.CurrentTime))

	case "close", "x":
		closed, err := sh.session.CloseOverlay()
		if err != nil {
			sh.fail(err)
			break
		}
		if closed {
			fmt.Fprintln(sh.out, "Overlay closed")
		} else {
			fmt.Fprintln(sh.out, "No overlay to close")
		}

	case "load":
		if len(args) == 0 {
			fmt.Fprintln(sh.out, "Usage: load <file>")
			break
		}
		sh.load(args[0])

	case "status", "s":
		sh.showStatus()

	case "clips", "c":
		sh.showClips()

	case "ruler":
		marks := sh.session.Ruler()
		if len(marks) == 0 {
			fmt.Fprintln(sh.out, "Timeline not initialized")
			break
		}
		labels := make([]string, 0, len(marks))
		for _, m := range marks {
			labels = append(labels, m.Label)
		}
		fmt.Fprintln(sh.out, strings.Join(labels, "  "))

	case "export", "e":
		sh.export()

	case "notices", "n":
		limit := 10
		if len(args) > 0 {
			if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
				limit = n
			}
		}
		sh.showNotices(limit)

	case "watch", "w":
		on := !sh.watching()
		if len(args) > 0 {
			on = args[0] == "on"
		}
		sh.setWatch(on)

	default:
		fmt.Fprintf(sh.out, "Unknown command: %s (type 'help')\n", cmd)
	}

	sh.flushNotices()
	return true
}

func (sh *shell) fail(err error) {
	fmt.Fprintf(sh.out, "Error: %v\n", err)
}

func (sh *shell) load(path string) {
	doc, err := catalog.LoadFile(path)
	if err != nil {
		sh.fail(err)
		return
	}
	if err := sh.session.Import(doc); err != nil {
		sh.fail(err)
		return
	}
	fmt.Fprintf(sh.out, "Loaded %d clips from %s\n", len(doc.Clips), path)
}

func (sh *shell) showStatus() {
	frame := sh.session.Frame()
	info := sh.session.Info()

	state := "paused"
	if frame.Playback.IsPlaying {
		state = "playing"
	}
	fmt.Fprintf(sh.out, "Session %s (%s, %d clips, started %s)\n",
		info.ID, state, info.ClipCount, humanize.Time(info.CreatedAt))
	fmt.Fprintln(sh.out, renderBar(frame.Timeline, sh.width))

	if rect, ok := frame.Timeline.HitTest(frame.Timeline.PlayheadFraction); ok {
		fmt.Fprintf(sh.out, "Under playhead: %s (%s)\n", rect.Name, rect.Label)
	}
	if line := renderOverlay(frame.Overlay); line != "" {
		fmt.Fprintln(sh.out, line)
	}
}

func (sh *shell) showClips() {
	clips := sh.session.Clips()
	if len(clips) == 0 {
		fmt.Fprintln(sh.out, "Catalog is empty")
		return
	}

	tw := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKIND\tSTART\tLENGTH\tRIGHTS")
	for i := range clips {
		c := &clips[i]
		rights := "-"
		if c.IsLicensed() {
			rights = fmt.Sprintf("%s (%.0f%%)", c.Attribution.RightsOwner, c.Attribution.RevenueSharePercent)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Name, c.Kind, models.FormatSeconds(c.StartTime), c.DurationString(), rights)
	}
	_ = tw.Flush()

	for _, w := range sh.session.Warnings() {
		fmt.Fprintf(sh.out, "warning: clip %s: %s\n", w.ClipID, w.Message)
	}
}

func (sh *shell) export() {
	sheet, err := sh.session.Export()
	if err != nil {
		sh.fail(err)
		return
	}
	if len(sheet.Credits) == 0 {
		fmt.Fprintln(sh.out, "No licensed clips to credit")
		return
	}

	tw := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMECODE\tTITLE\tARTIST\tRIGHTS OWNER\tSHARE")
	for _, c := range sheet.Credits {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.0f%%\n", c.Timecode, c.Title, c.Artist, c.RightsOwner, c.RevenueSharePercent)
	}
	_ = tw.Flush()
}

func (sh *shell) showNotices(limit int) {
	notices := sh.notices.Recent(limit)
	if len(notices) == 0 {
		fmt.Fprintln(sh.out, "No notices yet")
		return
	}
	for _, n := range notices {
		fmt.Fprintf(sh.out, "%-12s %-11s %s\n", humanize.Time(n.CreatedAt), n.Kind, n.Message)
	}
}

// flushNotices prints notices that arrived since the last flush
func (sh *shell) flushNotices() {
	for _, n := range sh.notices.Unread() {
		fmt.Fprintf(sh.out, "  [%s] %s\n", n.Kind, n.Message)
	}
}

func (sh *shell) watching() bool {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.unwatch != nil
}

// setWatch starts or stops printing a frame after every session change
func (sh *shell) setWatch(on bool) {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if !on {
		if sh.unwatch != nil {
			sh.unwatch()
			<-sh.done
			sh.unwatch = nil
			fmt.Fprintln(sh.out, "Watch off")
		}
		return
	}
	if sh.unwatch != nil {
		return
	}

	frames, unsubscribe := sh.session.Subscribe()
	sh.unwatch = unsubscribe
	sh.done = make(chan struct{})
	go sh.printFrames(frames, sh.done)
	fmt.Fprintln(sh.out, "Watch on")
}

func (sh *shell) printFrames(frames <-chan studio.Frame, done chan struct{}) {
	defer close(done)
	for frame := range frames {
		line := renderBar(frame.Timeline, sh.width)
		if overlay := renderOverlay(frame.Overlay); overlay != "" {
			line += "  " + overlay
		}
		fmt.Fprintln(sh.out, line)
		sh.flushNotices()
	}
}
