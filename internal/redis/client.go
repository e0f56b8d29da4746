package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// LoginLimitKey scopes login attempts per client address.
func LoginLimitKey(ip string) string {
	return fmt.Sprintf("login:%s", ip)
}

// ResendLimitKey scopes magic link re-issues per email address.
func ResendLimitKey(email string) string {
	return fmt.Sprintf("resend:%s", email)
}

// WebhookLimitKey scopes commerce deliveries per source address.
func WebhookLimitKey(ip string) string {
	return fmt.Sprintf("webhook:%s", ip)
}
