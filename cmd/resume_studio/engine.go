package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/resume-studio/internal/capture"
	"github.com/jonathan/resume-studio/internal/colornorm"
	"github.com/jonathan/resume-studio/internal/config"
	"github.com/jonathan/resume-studio/internal/export"
	"github.com/jonathan/resume-studio/internal/fetch"
)

// engine is the capture stack shared by every export flow of a process.
type engine struct {
	browser  *capture.Browser
	capturer *capture.Capturer
}

// newEngine starts headless Chrome and wires the color normalizer and image
// loader around it. Close releases the browser.
func newEngine(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*engine, error) {
	browser, err := capture.NewBrowser(ctx, capture.BrowserOptions{
		ExecPath: cfg.ChromePath,
		Timeout:  time.Duration(cfg.BrowserTimeoutSecs) * time.Second,
	}, log.With().Str("component", "browser").Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	normalizer := colornorm.New(
		colornorm.ProbeResolver{Probe: capture.NewChromeProbe(browser)},
		colornorm.ParserResolver{},
		log.With().Str("component", "colornorm").Logger(),
	)

	fetchOpts := fetch.DefaultOptions()
	fetchOpts.Timeout = time.Duration(cfg.ImageTimeoutSeconds) * time.Second
	fetchOpts.Credentials = cfg.CrossOrigin == capture.CrossOriginUseCredentials

	capturer := capture.New(
		capture.NewChromeRasterizer(browser),
		normalizer,
		fetch.NewLoader(fetchOpts),
		log.With().Str("component", "capture").Logger(),
	)
	return &engine{browser: browser, capturer: capturer}, nil
}

func (e *engine) Close() error {
	return e.browser.Close()
}

// exportConfig maps the process configuration onto coordinator settings.
func exportConfig(cfg *config.Config) export.Config {
	ec := export.DefaultConfig()
	ec.TemplatePath = cfg.Template
	if cfg.Background != "" {
		ec.Background = cfg.Background
	}
	if cfg.CrossOrigin != "" {
		ec.CrossOrigin = cfg.CrossOrigin
	}
	if cfg.ImageTimeoutSeconds > 0 {
		ec.ImageTimeout = time.Duration(cfg.ImageTimeoutSeconds) * time.Second
	}
	return ec
}
