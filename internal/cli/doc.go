// Package cli реализует команды n8n-deploy.
//
// # Обзор
//
// CLI — тонкая обёртка над пакетом n8n: каждая команда делает ровно
// один запрос к n8n Public API и печатает результат.
//
// ## App
//
// Состояние одного запуска. В PersistentPreRunE загружает конфигурацию
// (internal/config), создаёт n8n.Client с метриками и логгером.
// Если N8N_API_KEY не задан, ни одна команда не выполняется, даже help:
// ключ проверяется в Run до cobra.
//
//	app := cli.NewApp(version, os.Stdout, os.Stderr, logger)
//	os.Exit(app.Run(ctx, os.Args[1:]))
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Info/Error) — в stderr.
//
// ## Commands
//
//   - deploy [FILE] — также выполняется без команды
//   - list
//   - activate ID, deactivate ID
//
// Фабрики команд (NewDeployCmd и т.д.) принимают clientFn и outputFn —
// замыкания для ленивого получения Client и Output после парсинга флагов.
//
// # Коды выхода
//
// 0 — успех или help; 1 — любая ошибка (конфигурация, файл, API, usage).
package cli
