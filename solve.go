package freecap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// CreateTask submits a captcha task and returns its id. The task is
// validated against the captcha type's required-field contract before any
// network I/O.
func (c *Client) CreateTask(ctx context.Context, task *CaptchaTask, captchaType CaptchaType) (string, error) {
	payload, err := buildPayload(task, captchaType)
	if err != nil {
		return "", err
	}

	c.log.Info("creating task",
		slog.String("type", string(captchaType)),
		slog.String("site", task.SiteURL))

	resp, err := c.doRequest(ctx, http.MethodPost, "/CreateTask", payload)
	if err != nil {
		return "", err
	}

	if ok, _ := resp["status"].(bool); !ok {
		msg, _ := resp["error"].(string)
		if msg == "" {
			msg = "Unknown error"
		}
		return "", apiErrorf(0, resp, "task creation rejected: %s", msg)
	}

	taskID, _ := resp["taskId"].(string)
	if taskID == "" {
		return "", apiErrorf(0, resp, "no task id in response")
	}

	c.log.Info("task created", slog.String("taskId", taskID))
	return taskID, nil
}

// GetTaskResult fetches the raw status mapping for a task. The id is an
// opaque token and is never parsed.
func (c *Client) GetTaskResult(ctx context.Context, taskID string) (map[string]any, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return nil, &ValidationError{Message: "task id cannot be empty"}
	}

	c.log.Debug("checking task", slog.String("taskId", taskID))

	return c.doRequest(ctx, http.MethodPost, "/GetTask", map[string]any{"taskId": taskID})
}

// SolveCaptcha submits a task and polls until it is solved, the server
// reports failure, the deadline passes, or ctx is cancelled. Zero timeout
// and checkInterval fall back to the configured defaults.
//
// Errors during an individual poll are logged and do not end the loop;
// only a terminal status, the deadline (*TimeoutError) or cancellation
// (ctx.Err()) does.
func (c *Client) SolveCaptcha(ctx context.Context, task *CaptchaTask, captchaType CaptchaType, timeout, checkInterval time.Duration) (string, error) {
	if timeout < 0 {
		return "", &ValidationError{Message: "timeout must be positive"}
	}
	if checkInterval < 0 {
		return "", &ValidationError{Message: "check interval must be positive"}
	}
	if timeout == 0 {
		timeout = c.cfg.TaskTimeout
	}
	if checkInterval == 0 {
		checkInterval = c.cfg.CheckInterval
	}

	taskID, err := c.CreateTask(ctx, task, captchaType)
	if err != nil {
		return "", err
	}

	c.log.Info("waiting for task",
		slog.String("taskId", taskID),
		slog.Duration("timeout", timeout))

	start := c.clock.Now()
	deadline := c.clock.Timer(timeout)
	defer deadline.Stop()
	ticker := c.clock.Ticker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline.C:
			return "", &TimeoutError{TaskID: taskID, Timeout: timeout}
		case <-ticker.C:
		}

		result, err := c.GetTaskResult(ctx, taskID)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if errors.Is(err, ErrClosed) {
				return "", err
			}
			// Transient: the deadline, not a failed poll, ends the loop.
			c.log.Warn("poll failed", slog.String("taskId", taskID), slog.Any("error", err))
			continue
		}

		statusStr, ok := result["status"].(string)
		if !ok {
			c.log.Warn("no status in response", slog.String("taskId", taskID))
			continue
		}

		switch parseTaskStatus(statusStr) {
		case StatusSolved:
			solution, _ := result["solution"].(string)
			if solution == "" {
				return "", apiErrorf(0, result, "task %s marked solved but no solution provided", taskID)
			}
			c.log.Info("task solved", slog.String("taskId", taskID))
			return solution, nil

		case StatusError, StatusFailed:
			msg, _ := result["error"].(string)
			if msg == "" {
				msg, _ = result["Error"].(string)
			}
			if msg == "" {
				msg = "Unknown error"
			}
			return "", apiErrorf(0, result, "task %s failed: %s", taskID, msg)

		default: // pending, processing
			c.log.Debug("task in progress",
				slog.String("taskId", taskID),
				slog.String("status", statusStr),
				slog.Duration("remaining", timeout-c.clock.Since(start)))
		}
	}
}

// SolveHCaptcha solves an hCaptcha challenge with a one-shot client using
// default configuration.
func SolveHCaptcha(ctx context.Context, apiKey, siteKey, siteURL, rqData, groqAPIKey, proxy string, timeout time.Duration) (string, error) {
	client, err := NewClient(apiKey, ClientConfig{})
	if err != nil {
		return "", err
	}
	defer client.Close()

	task := &CaptchaTask{
		SiteKey:    siteKey,
		SiteURL:    siteURL,
		RqData:     rqData,
		GroqAPIKey: groqAPIKey,
		Proxy:      proxy,
	}
	return client.SolveCaptcha(ctx, task, HCaptcha, timeout, 0)
}

// SolveFunCaptcha solves a FunCaptcha challenge with a one-shot client.
// Empty chromeVersion and blob fall back to "137" and "undefined".
func SolveFunCaptcha(ctx context.Context, apiKey string, preset FunCaptchaPreset, chromeVersion, blob, proxy string, timeout time.Duration) (string, error) {
	client, err := NewClient(apiKey, ClientConfig{})
	if err != nil {
		return "", err
	}
	defer client.Close()

	task := NewCaptchaTask()
	task.Preset = preset
	task.Proxy = proxy
	if chromeVersion != "" {
		task.ChromeVersion = chromeVersion
	}
	if blob != "" {
		task.Blob = blob
	}
	return client.SolveCaptcha(ctx, task, FunCaptcha, timeout, 0)
}
