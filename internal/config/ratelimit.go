package config

import "time"

// RateLimitConfig drives the Redis token bucket guarding the generation
// endpoints. A request is charged by the size of the inventory it asks for:
// one token per ItemsPerToken expected records, at least one and never more
// than Capacity, so a single maximal run drains the bucket.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	ItemsPerToken  int64
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 10),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		ItemsPerToken:  int64(envInt("RATE_LIMIT_ITEMS_PER_TOKEN", 250_000)),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_route"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if b := envInt("RATE_LIMIT_BURST", -1); b > 0 {
		cfg.Capacity = b
	}
	if every := envDur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
		cfg.RefillTokens = 1
		cfg.RefillInterval = every
	}
	return cfg.clamped()
}

func (c RateLimitConfig) clamped() RateLimitConfig {
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	if c.ItemsPerToken < 1 {
		c.ItemsPerToken = 1
	}
	if minTTL := 5 * c.RefillInterval; c.TTL < minTTL {
		c.TTL = minTTL
	}
	return c
}

// Cost is the number of tokens a generation of expectedItems records takes.
func (c RateLimitConfig) Cost(expectedItems int64) int {
	per := c.ItemsPerToken
	if per < 1 {
		per = 1
	}
	n := (expectedItems + per - 1) / per
	if n < 1 {
		return 1
	}
	if limit := int64(max(c.Capacity, 1)); n > limit {
		return int(limit)
	}
	return int(n)
}
