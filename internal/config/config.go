package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// AppConfig configures the board server.
type AppConfig struct {
	Bind    string
	Port    int
	Prefix  string
	TLSCert string
	TLSKey  string

	// RedisURL enables the move feed when set.
	RedisURL    string
	FeedChannel string

	TurnNotice  bool
	SendQueue   int
	MessagesDir string
	SquareSize  int

	Profile bool
	Verbose bool
}

func Default() *AppConfig {
	return &AppConfig{
		Bind:        "0.0.0.0",
		Port:        3000,
		FeedChannel: "board:events",
		SendQueue:   32,
		SquareSize:  64,
	}
}

func (c *AppConfig) Validate() error {
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.SendQueue < 2 {
		return fmt.Errorf("invalid send queue size (at least 2): %d", c.SendQueue)
	}
	if c.SquareSize < 16 || c.SquareSize > 256 {
		return fmt.Errorf("invalid square size (16-256): %d", c.SquareSize)
	}
	if c.RedisURL != "" && !strings.HasPrefix(c.RedisURL, "redis://") && !strings.HasPrefix(c.RedisURL, "rediss://") {
		return fmt.Errorf("unsupported redis url scheme: %s", c.RedisURL)
	}
	c.Prefix = strings.TrimSuffix(strings.TrimSpace(c.Prefix), "/")
	if c.Prefix != "" && !strings.HasPrefix(c.Prefix, "/") {
		c.Prefix = "/" + c.Prefix
	}
	return nil
}

func (c *AppConfig) Addr() string { return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port)) }

func (c *AppConfig) Scheme() string {
	if c.TLSCert != "" && c.TLSKey != "" {
		return "https"
	}
	return "http"
}
