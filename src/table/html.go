package table

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// HTML renders the table as a bootstrap-styled <table>. Cells holding a
// templ.Component are rendered in place, everything else is escaped text.
func (t Table) HTML() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var err error
		write := func(s string) {
			if err == nil {
				_, err = io.WriteString(w, s)
			}
		}

		write(`<table class="table"><thead><tr>`)
		for _, h := range t.Headers {
			write(`<th scope="col" data-key="` + templ.EscapeString(h.Key) + `">` + templ.EscapeString(h.Label) + `</th>`)
		}
		write(`</tr></thead><tbody>`)
		for _, row := range t.Rows {
			write(`<tr data-key="` + templ.EscapeString(Text(row.Key)) + `">`)
			for _, cell := range row.Cells {
				write(`<td data-key="` + templ.EscapeString(cell.Key) + `">`)
				if component, ok := cell.Value.(templ.Component); ok {
					if err == nil {
						err = component.Render(ctx, w)
					}
				} else {
					write(templ.EscapeString(Text(cell.Value)))
				}
				write(`</td>`)
			}
			write(`</tr>`)
		}
		write(`</tbody></table>`)
		return err
	})
}
