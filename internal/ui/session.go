package ui

import (
	"fmt"
	"io"
	"time"

	"library-search/library"
)

// RenderSession writes the header line describing who is logged in.
func RenderSession(w io.Writer, s library.State) {
	if s.Phase != library.Authenticated || s.User == nil {
		fmt.Fprintln(w, mutedStyle.Render("Not logged in. Use 'login' or 'register'."))
		return
	}

	name := s.User.Username
	if name == "" {
		name = "(signed in)"
	}
	campus := s.User.Campus
	if campus == "" {
		campus = "未设置校区"
	}
	fmt.Fprintf(w, "%s | campus: %s", titleStyle.Render(name), campus)
	if info, ok := library.InspectToken(s.Token); ok && !info.ExpiresAt.IsZero() {
		fmt.Fprintf(w, " | token expires %s", info.ExpiresAt.In(time.Local).Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(w)
}
