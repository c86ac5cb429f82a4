package n8n

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Document — документ workflow в том виде, в каком он лежит на диске.
//
// Схема принадлежит серверу, поэтому локально документ не валидируется:
// это просто JSON-объект (nodes, connections, settings, ...).
type Document map[string]any

// Name возвращает поле name документа или пустую строку.
func (d Document) Name() string {
	if name, ok := d["name"].(string); ok {
		return name
	}
	return ""
}

// WorkflowID — идентификатор workflow на сервере.
//
// n8n отдаёт строковые ID, старые версии — числовые.
// Оба варианта приводятся к строке.
type WorkflowID string

// UnmarshalJSON принимает как строку, так и число.
func (id *WorkflowID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null":
		*id = ""
		return nil
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*id = WorkflowID(str)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("workflow id: %w", err)
	}
	*id = WorkflowID(n.String())
	return nil
}

// String возвращает ID как строку.
func (id WorkflowID) String() string {
	return string(id)
}

// Workflow — краткое описание workflow, как его возвращает сервер.
type Workflow struct {
	ID        WorkflowID `json:"id"`
	Name      string     `json:"name"`
	Active    bool       `json:"active"`
	CreatedAt string     `json:"createdAt,omitempty"`
	UpdatedAt string     `json:"updatedAt,omitempty"`
}

// WorkflowPage — одна страница списка workflows.
type WorkflowPage struct {
	Workflows  []Workflow `json:"data"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// ListOptions — фильтры GET /api/v1/workflows.
type ListOptions struct {
	Active *bool
	Name   string
	Tags   []string
	Limit  int
	Cursor string
}
