package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Strategy is one way of obtaining a local model file.
type Strategy struct {
	Name    string
	Resolve func(ctx context.Context) (string, error)
}

type unavailableError struct {
	err error
}

func (e *unavailableError) Error() string { return e.err.Error() }
func (e *unavailableError) Unwrap() error { return e.err }

// Unavailable marks a strategy failure as local to that strategy (a missing
// file, an unwritable directory) so Provision moves on to the next one.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return &unavailableError{err: err}
}

// Provision tries each strategy in order and returns the first path that
// resolves. Only failures marked with Unavailable fall through; any other
// error, such as the model server being down, ends provisioning.
func Provision(ctx context.Context, strategies []Strategy) (string, error) {
	var errs []error
	for _, s := range strategies {
		path, err := s.Resolve(ctx)
		if err == nil {
			slog.Info("Model artifact resolved", slog.String("strategy", s.Name), slog.String("path", path))
			return path, nil
		}
		slog.Warn("Model provisioning strategy failed", slog.String("strategy", s.Name), slog.String("error", err.Error()))
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		var unavailable *unavailableError
		if ctx.Err() != nil || !errors.As(err, &unavailable) {
			break
		}
	}
	return "", fmt.Errorf("no model artifact available: %w", errors.Join(errs...))
}

type Provisioner struct {
	Client *http.Client
	URL    string

	Timeout       time.Duration // per download attempt
	MaxAttempts   uint64
	RetryInterval time.Duration
}

// Strategies returns the local file check followed by one download strategy
// per scratch directory.
func (p *Provisioner) Strategies(path string, scratchDirs ...string) []Strategy {
	strategies := []Strategy{{
		Name: "local",
		Resolve: func(context.Context) (string, error) {
			if _, err := os.Stat(path); err != nil {
				return "", Unavailable(err)
			}
			return path, nil
		},
	}}
	for _, dir := range scratchDirs {
		dst := filepath.Join(dir, filepath.Base(path))
		strategies = append(strategies, Strategy{
			Name: "download:" + dir,
			Resolve: func(ctx context.Context) (string, error) {
				if err := p.Download(ctx, dst); err != nil {
					return "", err
				}
				return dst, nil
			},
		})
	}
	return strategies
}

// Download fetches the model into dst unless a file is already there.
func (p *Provisioner) Download(ctx context.Context, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		slog.Info("Model already present in scratch location", slog.String("path", dst))
		return nil
	}
	if p.URL == "" {
		return errors.New("no model download URL configured")
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Unavailable(err)
	}

	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 3
	}
	eb := backoff.NewExponentialBackOff()
	if p.RetryInterval > 0 {
		eb.InitialInterval = p.RetryInterval
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(eb, attempts-1), ctx)

	slog.Info("Downloading model", slog.String("url", p.URL), slog.String("path", dst))
	return backoff.Retry(func() error {
		err := p.fetch(ctx, dst)
		if err != nil {
			slog.Warn("Model download attempt failed", slog.String("error", err.Error()))
		}
		return err
	}, bo)
}

func (p *Provisioner) fetch(ctx context.Context, dst string) error {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %s", resp.Status)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return backoff.Permanent(err)
		}
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".model-*")
	if err != nil {
		return backoff.Permanent(Unavailable(err))
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return backoff.Permanent(Unavailable(err))
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return backoff.Permanent(Unavailable(err))
	}
	return nil
}
