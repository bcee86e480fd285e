// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer batches incoming tokens so the transcript re-renders
// at a capped frame rate instead of once per token. Tokens accumulate
// until either a batch fills or the rate limiter grants a flush slot.
//
// RELIABILITY: Write is called from the event pump while Flush runs on
// the Bubble Tea loop, so all state is mutex-guarded.
type StreamingBuffer struct {
	mu         sync.Mutex
	buffer     strings.Builder
	tokenCount int

	batchSize int
	limiter   *rate.Limiter
}

const (
	defaultBatchSize = 15
	defaultMaxFPS    = 30
)

// NewStreamingBuffer creates a buffer with default batching (15 tokens
// per batch, 30 flushes per second).
func NewStreamingBuffer() *StreamingBuffer {
	return NewStreamingBufferWithConfig(defaultBatchSize, defaultMaxFPS)
}

// NewStreamingBufferWithConfig creates a buffer with custom batching.
// Out-of-range values fall back to the defaults.
func NewStreamingBufferWithConfig(batchSize, maxFPS int) *StreamingBuffer {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if maxFPS <= 0 || maxFPS > 60 {
		maxFPS = defaultMaxFPS
	}
	return &StreamingBuffer{
		batchSize: batchSize,
		limiter:   rate.NewLimiter(rate.Limit(maxFPS), 1),
	}
}

// Write adds a token to the buffer.
func (sb *StreamingBuffer) Write(token string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.buffer.WriteString(token)
	sb.tokenCount++
}

// Flush returns the accumulated content when a flush is due: either a
// full batch is waiting, or the frame-rate limiter grants a slot. A
// denied flush keeps the content buffered for the next tick.
func (sb *StreamingBuffer) Flush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}
	if sb.tokenCount < sb.batchSize && !sb.limiter.Allow() {
		return "", false
	}
	return sb.drainLocked(), true
}

// ForceFlush returns everything buffered regardless of batching. Used
// when a stream ends so no tail tokens are lost.
func (sb *StreamingBuffer) ForceFlush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}
	return sb.drainLocked(), true
}

// Reset discards buffered content. Used on cancel.
func (sb *StreamingBuffer) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.buffer.Reset()
	sb.tokenCount = 0
}

// Pending returns the number of buffered tokens.
func (sb *StreamingBuffer) Pending() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.tokenCount
}

func (sb *StreamingBuffer) drainLocked() string {
	content := sb.buffer.String()
	sb.buffer.Reset()
	sb.tokenCount = 0
	return content
}
