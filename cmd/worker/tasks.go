package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/beat/pkg/job"
	"github.com/dmitrymomot/beat/pkg/logger"
)

// Built-in task names.
const (
	TaskLog     = "beat.log"
	TaskWebhook = "beat.webhook"
)

var (
	errWebhookURL    = errors.New("worker: webhook url kwarg is required")
	errWebhookStatus = errors.New("worker: webhook returned non-2xx status")
)

// logTask writes the call to the log. Useful for smoke-testing a schedule.
func logTask(log *slog.Logger) job.HandlerFunc {
	return func(ctx context.Context, call job.Call) error {
		ctx = logger.WithDefinition(ctx, call.PeriodicName)
		log.InfoContext(ctx, "periodic task executed",
			slog.String("task", call.Task),
			slog.Time("scheduled_at", call.ScheduledAt),
			slog.Any("args", call.Args),
			slog.Any("kwargs", call.Kwargs),
			slog.Int64("job_id", call.JobID),
			slog.Int("attempt", call.Attempt),
		)
		return nil
	}
}

type webhookPayload struct {
	ScheduledAt  time.Time         `json:"scheduled_at"`
	Kwargs       map[string]string `json:"kwargs"`
	PeriodicName string            `json:"periodic_name"`
	Task         string            `json:"task"`
	Args         []string          `json:"args"`
}

// webhookTask posts the call as JSON to kwargs["url"]. kwargs["method"]
// overrides the HTTP method. Reserved kwargs are not forwarded.
func webhookTask(client *http.Client) job.HandlerFunc {
	return func(ctx context.Context, call job.Call) error {
		target := call.Kwargs["url"]
		if target == "" {
			return errWebhookURL
		}
		method := strings.ToUpper(call.Kwargs["method"])
		if method == "" {
			method = http.MethodPost
		}

		kwargs := make(map[string]string, len(call.Kwargs))
		for k, v := range call.Kwargs {
			if k == "url" || k == "method" {
				continue
			}
			kwargs[k] = v
		}

		body, err := json.Marshal(webhookPayload{
			ScheduledAt:  call.ScheduledAt,
			Kwargs:       kwargs,
			PeriodicName: call.PeriodicName,
			Task:         call.Task,
			Args:         call.Args,
		})
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("worker: build webhook request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Beat-Periodic-Task", call.PeriodicName)

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("worker: webhook request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("%w: %d", errWebhookStatus, resp.StatusCode)
		}
		return nil
	}
}
