// Package n8n реализует клиент n8n Public API для управления workflows.
//
// # Обзор
//
// Клиент работает с одним семейством endpoint'ов:
//
//	POST /api/v1/workflows                 — создание workflow
//	GET  /api/v1/workflows                 — список workflows
//	POST /api/v1/workflows/{id}/activate   — активация
//	POST /api/v1/workflows/{id}/deactivate — деактивация
//
// Все запросы аутентифицируются статическим ключом в заголовке X-N8N-API-KEY.
// Каждая операция — ровно один HTTP-запрос, без retry и кэширования.
//
//	client := n8n.NewClient("https://n8n.example.com", apiKey)
//	doc, err := n8n.LoadDocument(".", "workflow.json")
//	wf, err := client.Deploy(ctx, doc)
//
// # Ошибки
//
//   - *LoadError (errors.Is(err, ErrLoad)) — файл не найден или не парсится
//   - *RemoteError (errors.Is(err, ErrRemote)) — сервер ответил не-2xx
//   - ErrEmptyWorkflowID — пустой ID, запрос не отправляется
//
// Документ workflow не валидируется локально: схема принадлежит серверу.
package n8n
