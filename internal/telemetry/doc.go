// Package telemetry обеспечивает наблюдаемость CLI.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики клиента n8n
//
// Логи пишутся в stderr. Метрики собираются в отдельный реестр
// и по флагу --metrics-file сохраняются в textfile формате.
package telemetry
