package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/krau/plantclassifier/config"
	"github.com/krau/plantclassifier/engine"
	"github.com/krau/plantclassifier/labels"
	"github.com/krau/plantclassifier/model"
	"github.com/krau/plantclassifier/onnx"
	"github.com/krau/plantclassifier/server"
	"github.com/krau/plantclassifier/service"
	ort "github.com/yalue/onnxruntime_go"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	slog.Info("Starting plant classifier")

	cfg := config.C()
	norm, err := service.ParseNormalization(cfg.Normalization)
	if err != nil {
		slog.Error("Invalid configuration", slog.String("error", err.Error()))
		return
	}

	defer func() {
		if ort.IsInitialized() {
			ort.DestroyEnvironment()
		}
	}()
	e := engine.New(loadModel(ctx, cfg), cfg.RenormalizeAbove)
	defer e.Close()

	classifier := service.NewClassifier(e, labels.NewStore(cfg.LabelsPath), service.Options{
		Width:          cfg.ImageWidth,
		Height:         cfg.ImageHeight,
		Normalization:  norm,
		FetchTimeout:   cfg.FetchTimeout.Duration,
		MaxImageBytes:  cfg.MaxImageBytes,
		MaxImagePixels: cfg.MaxImagePixels,
	})

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    cfg.Host + ":" + cfg.Port,
		Handler: server.New(cfg, e, classifier).Router(),
	}

	slog.Info("Listening on", slog.String("address", srv.Addr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", slog.String("error", err.Error()))
	}
}

// loadModel initializes the runtime and loads the model. Failures are logged
// and yield a nil handle so the status endpoints stay reachable.
func loadModel(ctx context.Context, cfg config.Config) *engine.Handle {
	ort.SetSharedLibraryPath(onnx.LibPath())
	if err := ort.InitializeEnvironment(); err != nil {
		slog.Error("Failed to initialize ONNX Runtime environment, serving without a model", slog.String("error", err.Error()))
		return nil
	}

	h, err := model.Load(ctx, cfg, engine.OpenONNX)
	if err != nil {
		slog.Error("Failed to load model, serving without a model", slog.String("error", err.Error()))
		return nil
	}
	return h
}
