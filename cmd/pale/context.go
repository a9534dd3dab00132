package main

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/dgallion1/pale/internal/cache"
	"github.com/dgallion1/pale/internal/config"
)

type commandContext struct {
	configFlag *string
	levelFlag  *string
	logOut     io.Writer

	configOnce sync.Once
	config     config.Config
	configErr  error

	logOnce sync.Once
	log     *slog.Logger
}

func newCommandContext(configFlag, levelFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		levelFlag:  levelFlag,
		logOut:     os.Stderr,
	}
}

func (c *commandContext) ensureConfig() (config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.levelFlag != nil && *c.levelFlag != "" {
			cfg.LogLevel = *c.levelFlag
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger returns a text logger on a terminal and a JSON logger otherwise.
func (c *commandContext) logger() *slog.Logger {
	c.logOnce.Do(func() {
		cfg, _ := c.ensureConfig()
		opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
		if isTerminal(c.logOut) {
			c.log = slog.New(slog.NewTextHandler(c.logOut, opts))
		} else {
			c.log = slog.New(slog.NewJSONHandler(c.logOut, opts))
		}
	})
	return c.log
}

func (c *commandContext) newCache(cfg config.Config) *cache.Cache {
	return cache.New(cfg.CacheDir, cfg.FetchTimeoutDuration(), c.logger(),
		cache.WithUserAgent(cfg.UserAgent),
		cache.WithExtension(cfg.PageExtension()),
	)
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
