package ui

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/ty-ras/start/internal/materialize"
	"github.com/ty-ras/start/internal/output"
)

// Reporter prints materialization progress. Dependency resolution is shown
// as a spinner counting resolved packages.
type Reporter struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

// NewReporter creates a reporter writing to out.
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

var _ materialize.Observer = (*Reporter)(nil)

// OnEvent implements materialize.Observer.
func (r *Reporter) OnEvent(e materialize.Event) {
	switch ev := e.(type) {
	case materialize.CopyStarted:
		r.line(output.SubtitleStyle.Render("Copying template files"))
	case materialize.CopyFinished:
		r.line(output.SuccessStyle.Render(fmt.Sprintf("%s Copied %d files", output.IconSuccess, ev.Files)))

	case materialize.VersionFixStarted:
		r.bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription(fmt.Sprintf("Resolving dependencies of %d package(s)", len(ev.Manifests))),
			progressbar.OptionSetWriter(r.out),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(65*1000000), // 65ms
			progressbar.OptionShowCount(),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionClearOnFinish(),
		)
	case materialize.PackageResolveFinished:
		if r.bar != nil {
			_ = r.bar.Add(1)
		}
	case materialize.VersionFixFinished:
		resolved := 0
		for _, deps := range ev.Versions {
			resolved += len(deps)
		}
		if r.bar != nil {
			_ = r.bar.Finish()
			r.bar = nil
		}
		r.line(output.SuccessStyle.Render(fmt.Sprintf("%s Pinned %d dependencies", output.IconPackage, resolved)))

	case materialize.NameFixStarted:
		r.line(output.SubtitleStyle.Render(fmt.Sprintf("Renaming %s to %s", ev.From, ev.To)))
	case materialize.NameFixFinished:
		r.line(output.HelpStyle.Render(fmt.Sprintf("Updated %d files", len(ev.Modified))))

	case materialize.SubstituteStarted:
		r.line(output.SubtitleStyle.Render("Filling in project settings"))
	case materialize.SubstituteFinished:
		r.line(output.HelpStyle.Render(fmt.Sprintf("Updated %d files", len(ev.Modified))))
	}
}

func (r *Reporter) line(s string) {
	fmt.Fprintln(r.out, s)
}
