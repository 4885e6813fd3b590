package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jrick/logrotate/rotator"

	"github.com/ZentaChain/zentalk-cups/pkg/config"
	"github.com/ZentaChain/zentalk-cups/pkg/network"
	"github.com/ZentaChain/zentalk-cups/pkg/storage"
	"github.com/ZentaChain/zentalk-cups/pkg/tui"
)

// runTUI owns the terminal until the user quits. Logs go to a rotated
// file meanwhile.
func (a *app) runTUI(ctx context.Context, cfg *config.Config, client *network.Client) error {
	logFile, err := openLogFile(cfg.Log)
	if err != nil {
		return err
	}
	defer logFile.Close()

	log.SetOutput(logFile)
	defer log.SetOutput(a.stderr)

	opts := tui.Options{
		TickInterval: cfg.Refresh.TickInterval,
		MessageLimit: cfg.Refresh.MessageLimit,
		NewestFirst:  cfg.Protocol.NewestFirst,
	}

	if cfg.Cache.Enabled {
		cache, err := openCache(cfg.Cache.Path, cfg.Relay.Password)
		if err != nil {
			log.Printf("⚠️  Cache disabled: %v", err)
		} else {
			defer cache.Close()
			opts.Cache = cache
			opts.Snapshot = loadSnapshot(cache)
		}
	}

	log.Printf("🚀 Connecting to %s", client.Credentials().Endpoint())

	model := tui.NewModel(ctx, client, opts)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}

	log.Println("👋 Client closed")
	return nil
}

func openLogFile(cfg config.LogConfig) (*rotator.Rotator, error) {
	if dir := filepath.Dir(cfg.File); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	r, err := rotator.New(cfg.File, cfg.MaxSizeKB, false, cfg.MaxRolls)
	if err != nil {
		return nil, fmt.Errorf("failed to create file rotator: %w", err)
	}
	return r, nil
}

func openCache(path, password string) (*storage.Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return storage.Open(path, password)
}

// loadSnapshot returns what the cache holds, or nil when it is empty. The
// cached conversation is only used if its contact is still listed.
func loadSnapshot(cache *storage.Cache) *tui.Snapshot {
	users, err := cache.LoadUsers()
	if err != nil {
		log.Printf("⚠️  Failed to load cached contacts: %v", err)
		return nil
	}
	if len(users) == 0 {
		return nil
	}

	snap := &tui.Snapshot{Users: users}

	peer, err := cache.LastPeer()
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("⚠️  Failed to load last conversation: %v", err)
		}
		return snap
	}

	for _, user := range users {
		if user.ID != peer {
			continue
		}
		msgs, err := cache.LoadMessages(peer)
		if err != nil {
			log.Printf("⚠️  Failed to load cached messages: %v", err)
			return snap
		}
		snap.Peer = peer
		snap.Messages = msgs
		log.Printf("📂 Loaded %d contacts and %d messages from cache", len(users), len(msgs))
		break
	}
	return snap
}
