package stats

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
)

// WriteMarkdown renders s as a Markdown completion report.
func WriteMarkdown(w io.Writer, s Stats, generated time.Time) error {
	md := markdown.NewMarkdown(w)

	md.H1("Rating Completion")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", generated.UTC().Format(time.RFC3339)},
			{"Total radiologists", strconv.Itoa(s.TotalUsers)},
			{"Active radiologists", strconv.Itoa(s.ActiveUsers)},
		},
	})
	md.PlainText("")

	md.H2("Per radiologist")
	md.PlainText("")
	if len(s.PerUserCompletion) == 0 {
		md.PlainText("No ratings have been stored yet.")
		return md.Build()
	}

	rows := make([][]string, 0, len(s.PerUserCompletion))
	for _, c := range s.PerUserCompletion {
		rows = append(rows, []string{
			c.Name,
			"`" + c.UserID + "`",
			fmt.Sprintf("%d/%d", c.Completed, c.Total),
			fmt.Sprintf("%.1f%%", c.Percent()),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Name", "User ID", "Completed", "Percent"},
		Rows:   rows,
	})
	return md.Build()
}
