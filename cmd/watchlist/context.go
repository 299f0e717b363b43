package main

import (
	"strings"
	"sync"

	"github.com/narwhalmedia/watchlist/pkg/config"
)

type commandContext struct {
	configFlag  string
	backendFlag string

	once    sync.Once
	app     *App
	cleanup func()
	err     error
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

// ensureApp loads configuration and wires the application on first use.
func (c *commandContext) ensureApp() (*App, error) {
	c.once.Do(func() {
		cfg, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.err = err
			return
		}
		if backend := strings.TrimSpace(c.backendFlag); backend != "" {
			cfg.Storage.Backend = strings.ToLower(backend)
			if err := cfg.Validate(); err != nil {
				c.err = err
				return
			}
		}
		c.app, c.cleanup, c.err = InitializeApp(cfg)
	})
	return c.app, c.err
}

func (c *commandContext) close() {
	if c.cleanup != nil {
		c.cleanup()
	}
}
