package router

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/dmitrymomot/chainmux/core/handler"
)

// Describe renders the route table as an ASCII table for diagnostics.
// Reserved routes are left out.
//
//	+--------+-------------+--------------------+----------+------------------+
//	| METHOD | PATH        | CHAIN              | CONSUMES | PRODUCES         |
//	+--------+-------------+--------------------+----------+------------------+
//	| GET    | /users/{id} | auth -> users.show |          | application/json |
//	+--------+-------------+--------------------+----------+------------------+
func (r *Router) Describe() string {
	headers := []string{"METHOD", "PATH", "CHAIN", "CONSUMES", "PRODUCES"}
	var rows [][]string
	for _, info := range r.Routes() {
		if isReserved(info.Template) {
			continue
		}
		rows = append(rows, []string{
			info.Method,
			info.Template,
			strings.Join(info.Chain, " -> "),
			strings.Join(info.Consumes, ", "),
			strings.Join(info.Produces, ", "),
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	var b strings.Builder
	border := func() {
		for _, w := range widths {
			b.WriteString("+" + strings.Repeat("-", w+2))
		}
		b.WriteString("+\n")
	}
	line := func(cells []string) {
		for i, cell := range cells {
			fmt.Fprintf(&b, "| %-*s ", widths[i], cell)
		}
		b.WriteString("|\n")
	}

	border()
	line(headers)
	border()
	for _, row := range rows {
		line(row)
	}
	if len(rows) > 0 {
		border()
	}
	return b.String()
}

// entryName is the entry's Name, or the name of its function.
func entryName(e handler.Entry, index int) string {
	if e.Name != "" {
		return e.Name
	}
	if e.Func != nil {
		if fn := runtime.FuncForPC(reflect.ValueOf(e.Func).Pointer()); fn != nil {
			name := fn.Name()
			if i := strings.LastIndexByte(name, '/'); i >= 0 {
				name = name[i+1:]
			}
			return name
		}
	}
	return fmt.Sprintf("#%d", index)
}
