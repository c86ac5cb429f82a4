// n8n-deploy — инструмент командной строки для деплоя и управления
// workflows n8n через Public API.
//
// Использование:
//
//	n8n-deploy [--api-url URL] [--json] [command] [args]
//
// Команды:
//
//	deploy [FILE]    Задеплоить workflow (по умолчанию — шаблон bug investigation)
//	list             Список workflows
//	activate ID      Активировать workflow
//	deactivate ID    Деактивировать workflow
//
// Переменные окружения:
//
//	N8N_API_KEY   API ключ n8n (обязательно)
//	N8N_API_URL   адрес инстанса (по умолчанию https://n8n.blaze.money)
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/n8n-deploy/internal/cli"
	"github.com/shaiso/n8n-deploy/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	logger := telemetry.SetupLogger(os.Stderr)
	app := cli.NewApp(version, os.Stdout, os.Stderr, logger)

	code := app.Run(ctx, os.Args[1:])
	cancel()
	os.Exit(code)
}
