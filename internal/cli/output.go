package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Output управляет форматированием вывода CLI.
//
// Данные (таблицы, JSON) идут в w, сообщения для оператора — в errW,
// чтобы `n8n-deploy list --json | jq .` получал чистый JSON.
type Output struct {
	jsonMode bool
	w        io.Writer
	errW     io.Writer
}

// NewOutput создаёт Output. Если jsonMode=true, данные выводятся в JSON.
func NewOutput(jsonMode bool, w, errW io.Writer) *Output {
	return &Output{
		jsonMode: jsonMode,
		w:        w,
		errW:     errW,
	}
}

// JSONMode сообщает, включён ли JSON вывод.
func (o *Output) JSONMode() bool {
	return o.jsonMode
}

// Workflows выводит workflows таблицей ID/NAME/ACTIVE/URL или JSON массивом.
func (o *Output) Workflows(views []workflowView) error {
	if o.jsonMode {
		return o.JSON(views)
	}

	rows := make([][]string, len(views))
	for i, v := range views {
		rows[i] = []string{v.ID.String(), v.Name, activeMark(v.Active), v.URL}
	}
	return o.table([]string{"ID", "NAME", "ACTIVE", "URL"}, rows)
}

// table печатает заголовок, строку из дефисов под ним и строки, выровненные tabwriter.
func (o *Output) table(headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	rule := make([]string, len(headers))
	for i, h := range headers {
		rule[i] = strings.Repeat("-", len(h))
	}
	for _, row := range append([][]string{headers, rule}, rows...) {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	return tw.Flush()
}

// JSON выводит данные в формате JSON с отступами.
func (o *Output) JSON(v any) error {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Info выводит сообщение для оператора в stderr.
func (o *Output) Info(format string, args ...any) {
	fmt.Fprintf(o.errW, format+"\n", args...)
}

// Error выводит сообщение об ошибке в stderr.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.errW, "Error: "+msg)
}

func activeMark(active bool) string {
	if active {
		return "yes"
	}
	return "no"
}
