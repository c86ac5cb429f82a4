package n8n

import (
	"errors"
	"fmt"
	"net/http"
)

// Ошибки клиента n8n.
var (
	// ErrLoad — документ workflow не удалось прочитать или распарсить.
	ErrLoad = errors.New("load workflow document")

	// ErrInvalidDocument — документ не является JSON/YAML объектом.
	ErrInvalidDocument = errors.New("workflow document must be an object")

	// ErrRemote — n8n API вернул не-2xx статус.
	ErrRemote = errors.New("n8n api error")

	// ErrEmptyWorkflowID — не указан ID workflow.
	// Возвращается до любого сетевого вызова.
	ErrEmptyWorkflowID = errors.New("workflow ID required")
)

// LoadError — ошибка загрузки документа workflow с контекстом.
type LoadError struct {
	Path string // путь, как его передал пользователь
	Err  error  // базовая ошибка (fs, JSON, YAML)
}

// Error реализует интерфейс error.
func (e *LoadError) Error() string {
	return fmt.Sprintf("load workflow from %s: %v", e.Path, e.Err)
}

// Unwrap возвращает базовую ошибку.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is позволяет проверять errors.Is(err, ErrLoad).
func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}

// RemoteError — ответ n8n API с не-2xx статусом.
type RemoteError struct {
	StatusCode int
	Body       string // сырой текст ответа
	Message    string // поле message, если тело ответа — JSON
	BodyErr    error  // ошибка чтения тела; Body тогда неполный
}

// Error реализует интерфейс error.
func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Body
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.BodyErr != nil {
		return fmt.Sprintf("HTTP %d: %s (body truncated: %v)", e.StatusCode, msg, e.BodyErr)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, msg)
}

// Unwrap возвращает ErrRemote.
func (e *RemoteError) Unwrap() error {
	return ErrRemote
}

// AsRemoteError извлекает RemoteError из цепочки ошибок.
func AsRemoteError(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
