package ratelimit

import (
	"context"
	"sync"
	"time"
)

// 端点名称（与交易所公布的限流分组一致）
const (
	EndpointOrderPost  = "clob:order:post"
	EndpointBalanceGet = "clob:balance:get"
	EndpointAuth       = "clob:auth"
	EndpointGeneral    = "clob:general"
)

// RateLimiter 速率限制器接口
type RateLimiter interface {
	Wait(ctx context.Context) error
	Allow() bool
	GetRemaining() int
}

// TokenBucket 令牌桶速率限制器
type TokenBucket struct {
	capacity   int           // 桶容量
	tokens     int           // 当前令牌数
	refillRate int           // 每秒补充的令牌数
	lastRefill time.Time     // 上次补充时间
	now        func() time.Time
	mu         sync.Mutex
}

// NewTokenBucket 创建新的令牌桶
func NewTokenBucket(capacity, refillRate int) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// refill 补充令牌（调用方持锁）
func (tb *TokenBucket) refill() {
	now := tb.now()
	tokensToAdd := int(now.Sub(tb.lastRefill).Seconds()) * tb.refillRate
	if tokensToAdd > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+tokensToAdd)
		tb.lastRefill = now
	}
}

// Allow 检查是否允许请求，允许时消耗一个令牌
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Wait 阻塞直到拿到令牌或 ctx 结束
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		if tb.Allow() {
			return nil
		}

		wait := time.Second
		if tb.refillRate > 0 {
			wait = time.Second / time.Duration(tb.refillRate)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// GetRemaining 获取剩余令牌数
func (tb *TokenBucket) GetRemaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	return tb.tokens
}

// SlidingWindow 滑动窗口速率限制器
type SlidingWindow struct {
	limit      int
	windowSize time.Duration
	requests   []time.Time
	now        func() time.Time
	mu         sync.Mutex
}

// NewSlidingWindow 创建新的滑动窗口速率限制器
func NewSlidingWindow(limit int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		limit:      limit,
		windowSize: windowSize,
		now:        time.Now,
	}
}

// prune 移除窗口外的请求（调用方持锁）
func (sw *SlidingWindow) prune() {
	cutoff := sw.now().Add(-sw.windowSize)
	i := 0
	for i < len(sw.requests) && !sw.requests[i].After(cutoff) {
		i++
	}
	sw.requests = sw.requests[i:]
}

// Allow 检查是否允许请求
func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.prune()
	if len(sw.requests) >= sw.limit {
		return false
	}
	sw.requests = append(sw.requests, sw.now())
	return true
}

// Wait 阻塞直到窗口内有空位或 ctx 结束
func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for {
		if sw.Allow() {
			return nil
		}

		sw.mu.Lock()
		wait := sw.windowSize / 10
		if len(sw.requests) > 0 {
			wait = sw.requests[0].Add(sw.windowSize).Sub(sw.now())
		}
		sw.mu.Unlock()
		if wait <= 0 {
			wait = time.Millisecond
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// GetRemaining 获取窗口内剩余请求数
func (sw *SlidingWindow) GetRemaining() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.prune()
	return sw.limit - len(sw.requests)
}

// Manager 按端点分组的速率限制管理器
type Manager struct {
	limiters map[string]RateLimiter
	mu       sync.RWMutex
}

// NewManager 创建带 CLOB 默认限额的管理器
func NewManager() *Manager {
	m := &Manager{limiters: make(map[string]RateLimiter)}

	// CLOB API 限制
	m.limiters[EndpointOrderPost] = NewTokenBucket(2400, 240)               // 2400/10s, 240/s
	m.limiters[EndpointBalanceGet] = NewSlidingWindow(125, 10*time.Second) // 125/10s
	m.limiters[EndpointAuth] = NewSlidingWindow(100, 10*time.Second)
	m.limiters[EndpointGeneral] = NewSlidingWindow(5000, 10*time.Second)

	return m
}

// Set 覆盖某个端点的限制器
func (m *Manager) Set(endpoint string, limiter RateLimiter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiters[endpoint] = limiter
}

// GetLimiter 获取指定端点的速率限制器，未配置时回落到通用限制器
func (m *Manager) GetLimiter(endpoint string) RateLimiter {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limiter, ok := m.limiters[endpoint]; ok {
		return limiter
	}
	return m.limiters[EndpointGeneral]
}

// Wait 等待直到允许请求
func (m *Manager) Wait(ctx context.Context, endpoint string) error {
	return m.GetLimiter(endpoint).Wait(ctx)
}

// Allow 检查是否允许请求
func (m *Manager) Allow(endpoint string) bool {
	return m.GetLimiter(endpoint).Allow()
}
