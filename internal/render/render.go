// Package render formats articles and session state for the terminal.
package render

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/matheuskafuri/newsdesk/internal/articles"
	"github.com/matheuskafuri/newsdesk/internal/news"
	"github.com/matheuskafuri/newsdesk/internal/session"
)

const minWidth = 20

// List renders a list snapshot: a status line, then one two-line entry per article.
func List(snap articles.Snapshot, width int, now time.Time) string {
	width = clampWidth(width)

	var b strings.Builder
	b.WriteString(StatusBar(snap, width))
	b.WriteString("\n")
	if snap.Err != "" {
		b.WriteString(errorStyle.Render("error: " + snap.Err))
		b.WriteString("\n")
	}
	if len(snap.Articles) == 0 {
		if !snap.Loading {
			b.WriteString("No articles found\n")
		}
		return b.String()
	}
	for i, a := range snap.Articles {
		b.WriteString(listItem(i+1, a, width, now))
		b.WriteString("\n")
	}
	return b.String()
}

func listItem(n int, a news.Article, width int, now time.Time) string {
	prefix := fmt.Sprintf("%3d ", n)
	title := itemIndexStyle.Render(prefix) + itemTitleStyle.Render(truncateStr(a.Title, width-len(prefix)))

	meta := []string{}
	if a.Source != "" {
		meta = append(meta, itemSourceStyle.Render(a.Source))
	}
	meta = append(meta, itemTimeStyle.Render(relativeTime(a.PublishedAt, now)))
	meta = append(meta, itemTimeStyle.Render(a.ID))

	return title + "\n" + strings.Repeat(" ", len(prefix)) + strings.Join(meta, itemTimeStyle.Render(" · "))
}

// Article renders the detail view of one resolved article.
func Article(d articles.Detail, width int) string {
	width = clampWidth(width)
	if !d.Found {
		if d.Err != "" {
			return errorStyle.Render(d.Err) + "\n"
		}
		return "No article selected\n"
	}
	a := d.Article

	byline := []string{}
	if a.Source != "" {
		byline = append(byline, a.Source)
	}
	if a.Author != "" {
		byline = append(byline, a.Author)
	}
	byline = append(byline, formatDate(a.PublishedAt))

	body := a.Content
	if body == "" {
		body = a.Description
	}
	if body == "" {
		body = "(No description available)"
	}

	parts := []string{
		detailTitleStyle.Width(width).Render(a.Title),
		detailSourceStyle.Render(strings.Join(byline, " · ")),
		"",
		detailBodyStyle.Width(width).Render(wrapText(body, width)),
	}
	if a.ImageURL != "" {
		parts = append(parts, "", detailLinkStyle.Render("Image: "+a.ImageURL))
	}
	if a.URL != "" {
		parts = append(parts, "", detailLinkStyle.Render("Read more: "+a.URL))
	}
	if d.Err != "" {
		parts = append(parts, "", errorStyle.Render(d.Err))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...) + "\n"
}

// Profile renders the session state.
func Profile(st session.State) string {
	if !st.Authenticated() {
		return fmt.Sprintf("%s %s\n", labelStyle.Render("status"), st.Status)
	}
	name := st.User.Name
	if name == "" {
		name = "-"
	}
	rows := []string{
		headerStyle.Render(initials(st.User)) + " " + headerStyle.Render(name),
		labelStyle.Render("id") + " " + st.User.ID,
		labelStyle.Render("email") + " " + st.User.Email,
		labelStyle.Render("status") + " " + st.Status.String(),
	}
	return strings.Join(rows, "\n") + "\n"
}

func StatusBar(snap articles.Snapshot, width int) string {
	left := fmt.Sprintf("%d articles", len(snap.Articles))
	if snap.Loading {
		left += " (refreshing...)"
	}
	return statusBarStyle.Width(clampWidth(width)).Render(left)
}

// initials mirrors an avatar: first letter of name, else of email.
func initials(u *session.User) string {
	src := u.Name
	if src == "" {
		src = u.Email
	}
	r, size := utf8.DecodeRuneInString(src)
	if size == 0 {
		return "?"
	}
	return strings.ToUpper(string(r))
}

func clampWidth(width int) int {
	if width < minWidth {
		return 80
	}
	return width
}

// relativeTime formats an ISO timestamp relative to now. Unparseable
// values are shown as-is.
func relativeTime(published string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, published)
	if err != nil {
		return published
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}

func formatDate(published string) string {
	t, err := time.Parse(time.RFC3339, published)
	if err != nil {
		return published
	}
	return t.Format("Jan 2, 2006")
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
		} else {
			line += " " + w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
