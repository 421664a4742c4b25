// Package render formats client state for the terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"vibeclient/internal/models"
	"vibeclient/internal/toast"

	"github.com/charmbracelet/lipgloss"
)

const contentWidth = 60

// Printer renders with the color profile of the writer it was created for.
type Printer struct {
	author  lipgloss.Style
	meta    lipgloss.Style
	content lipgloss.Style
	liked   lipgloss.Style
	heading lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	info    lipgloss.Style
}

// New creates a printer for w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		author:  r.NewStyle().Foreground(lipgloss.Color("#ff8")).Bold(true),
		meta:    r.NewStyle().Foreground(lipgloss.Color("#888")),
		content: r.NewStyle().Width(contentWidth),
		liked:   r.NewStyle().Foreground(lipgloss.Color("#f55")),
		heading: r.NewStyle().Foreground(lipgloss.Color("#45f")).Bold(true),
		success: r.NewStyle().Foreground(lipgloss.Color("#5f5")),
		failure: r.NewStyle().Foreground(lipgloss.Color("#f55")),
		info:    r.NewStyle().Foreground(lipgloss.Color("#5af")),
	}
}

// Post renders one feed entry.
func (p *Printer) Post(post models.Post) string {
	var b strings.Builder

	name := post.Author.Username
	if name == "" {
		name = "unknown"
	}
	b.WriteString("@" + p.author.Render(name))
	if !post.CreatedAt.IsZero() {
		b.WriteString(" " + p.meta.Render(post.CreatedAt.Local().Format(time.DateTime)))
	}
	b.WriteString("\n")
	b.WriteString(p.content.Render(post.Content))
	b.WriteString("\n")
	if post.ImageURL != "" {
		b.WriteString(p.meta.Render("image: "+post.ImageURL) + "\n")
	}

	heart := "♡"
	if post.Liked {
		heart = p.liked.Render("♥")
	}
	b.WriteString(fmt.Sprintf("%s %d  %s\n", heart, post.LikeCount, p.meta.Render("id "+post.ID)))
	return b.String()
}

// Feed renders posts in order, separated by blank lines.
func (p *Printer) Feed(posts []models.Post) string {
	if len(posts) == 0 {
		return p.meta.Render("No posts yet") + "\n"
	}
	parts := make([]string, 0, len(posts))
	for _, post := range posts {
		parts = append(parts, p.Post(post))
	}
	return strings.Join(parts, "\n")
}

// Profile renders a user and the posts embedded in the profile.
func (p *Printer) Profile(u models.User) string {
	var b strings.Builder
	b.WriteString(p.heading.Render(u.FullName) + " @" + p.author.Render(u.Username) + "\n")
	if u.Email != "" {
		b.WriteString(p.meta.Render(u.Email) + "\n")
	}
	if u.Bio != "" {
		b.WriteString(p.content.Render(u.Bio) + "\n")
	}
	if u.ProfileImage != "" {
		b.WriteString(p.meta.Render("avatar: "+u.ProfileImage) + "\n")
	}
	if u.Posts != nil {
		b.WriteString("\n" + p.heading.Render(fmt.Sprintf("Posts (%d)", len(u.Posts))) + "\n")
		b.WriteString(p.Feed(u.Posts))
	}
	return b.String()
}

// Session renders who is signed in.
func (p *Printer) Session(s models.Session) string {
	switch {
	case !s.IsAuthenticated:
		return p.meta.Render("Not signed in") + "\n"
	case s.User == nil:
		return "Signed in " + p.meta.Render("(account not loaded)") + "\n"
	default:
		return "Signed in as @" + p.author.Render(s.User.Username) + " " + p.meta.Render(s.User.ID) + "\n"
	}
}

// Toast renders the visible toast, or nothing.
func (p *Printer) Toast(t toast.State) string {
	if !t.Visible || t.Message == "" {
		return ""
	}
	switch t.Kind {
	case toast.Success:
		return p.success.Render("✔ "+t.Message) + "\n"
	case toast.Error:
		return p.failure.Render("✘ "+t.Message) + "\n"
	default:
		return p.info.Render("• "+t.Message) + "\n"
	}
}
