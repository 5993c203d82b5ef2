// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root

package wheel

import "sync"

// handVector is the fixed-size backing array shared by ClockHands and the
// per-task radix decomposition. It is recycled through a sync.Pool instead
// of the source's hand-rolled arena, since Go already ships the idiomatic
// mechanism for this exact "reuse fixed-size scratch buffers" concern.
type handVector [maxLayers]int

// handPool recycles handVector values. The configured buffer pool size only
// sets how many vectors are put into the pool up front; sync.Pool itself
// decides when to actually reclaim memory, so the configured size is advisory.
type handPool struct {
	pool sync.Pool
}

// newHandPool builds a pool pre-warmed with prewarm handVectors, so the
// first burst of registrations after process start doesn't pay allocation
// cost on the hot path.
func newHandPool(prewarm int) *handPool {
	p := &handPool{
		pool: sync.Pool{
			New: func() any {
				return new(handVector)
			},
		},
	}
	for i := 0; i < prewarm; i++ {
		p.pool.Put(new(handVector))
	}
	return p
}

func (p *handPool) acquire() *handVector {
	return p.pool.Get().(*handVector)
}

func (p *handPool) release(v *handVector) {
	*v = handVector{}
	p.pool.Put(v)
}
