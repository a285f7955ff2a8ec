package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/vilaca/gitlab-ci-status/internal/domain"
)

// Basic ANSI colors, so the terminal theme decides the exact shade.
var (
	Red    = lipgloss.Color("1")
	Green  = lipgloss.Color("2")
	Yellow = lipgloss.Color("3")
	Blue   = lipgloss.Color("4")
	Cyan   = lipgloss.Color("6")
	White  = lipgloss.Color("7")
)

type styles struct {
	branch  lipgloss.Style
	info    lipgloss.Style
	err     lipgloss.Style
	byKind  map[domain.StatusKind]lipgloss.Style
	unknown lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	status := func(c lipgloss.Color) lipgloss.Style {
		return r.NewStyle().Foreground(c).Bold(true)
	}

	return styles{
		branch: r.NewStyle().Foreground(Cyan),
		info:   r.NewStyle().Foreground(Yellow),
		err:    r.NewStyle().Foreground(Red),
		byKind: map[domain.StatusKind]lipgloss.Style{
			domain.KindSuccess:  status(Green),
			domain.KindFailed:   status(Red),
			domain.KindBuilding: status(Yellow),
			domain.KindCanceled: status(White),
			domain.KindSkipped:  status(Blue),
		},
		unknown: status(White),
	}
}

func (s styles) status(kind domain.StatusKind) lipgloss.Style {
	if style, ok := s.byKind[kind]; ok {
		return style
	}
	return s.unknown
}
