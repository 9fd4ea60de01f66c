package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	perrors "git.home.luguber.info/inful/pagepress/internal/errors"
)

var darkmodes = map[string]bool{"light": true, "dark": true, "auto": true}

var logLevels = map[string]bool{"": true, "debug": true, "info": true, "warn": true, "error": true}

// Validate reports the first configuration problem. Call after Normalize.
func Validate(cfg *Config) error {
	switch {
	case cfg.Entry == "":
		return perrors.ConfigInvalid("entry", "entry file is required")
	case cfg.HTMLDir == "":
		return perrors.ConfigInvalid("html_dir", "html output path is required")
	case cfg.AssetDir == "":
		return perrors.ConfigInvalid("asset_dir", "asset directory is required")
	case !darkmodes[cfg.Darkmode]:
		return perrors.ConfigInvalid("darkmode", fmt.Sprintf("unknown mode %q (want light, dark or auto)", cfg.Darkmode))
	case !logLevels[cfg.LogLevel]:
		return perrors.ConfigInvalid("log_level", fmt.Sprintf("unknown level %q", cfg.LogLevel))
	case cfg.Serve.RebuildEvery < 0:
		return perrors.ConfigInvalid("serve.rebuild_every", "must not be negative")
	}

	for _, t := range cfg.Themes {
		if strings.ContainsAny(t, `/\`) || t == "." || t == ".." {
			return perrors.ConfigInvalid("themes", fmt.Sprintf("invalid theme name %q", t))
		}
	}
	if cfg.Root != "" && !within(cfg.Root, cfg.Entry) {
		return perrors.ConfigInvalid("entry", fmt.Sprintf("entry %s is outside of root %s", cfg.Entry, cfg.Root))
	}
	return validateAddr(cfg.Serve.Addr)
}

func validateAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return perrors.ConfigInvalid("serve.addr", fmt.Sprintf("invalid address %q: %v", addr, err))
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return perrors.ConfigInvalid("serve.addr", fmt.Sprintf("invalid port %q", port))
	}
	return nil
}

// ValidateServe checks the settings needed to serve without building.
func ValidateServe(cfg *Config) error {
	switch {
	case cfg.AssetDir == "":
		return perrors.ConfigInvalid("asset_dir", "asset directory is required")
	case !logLevels[cfg.LogLevel]:
		return perrors.ConfigInvalid("log_level", fmt.Sprintf("unknown level %q", cfg.LogLevel))
	}
	return validateAddr(cfg.Serve.Addr)
}
