// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root

package wheel

// bucketLayer is one level of the wheel: layerSize (64) slots, each an
// optional ordered slice of tasks sharing the same radix digit at this
// layer. Slots are allocated lazily since most stay empty in steady state.
type bucketLayer struct {
	slots      [layerSize][]*task
	layerIndex int
	size       int
}

func newBucketLayer(layerIndex int) *bucketLayer {
	return &bucketLayer{layerIndex: layerIndex}
}

// insert files t into the slot selected by its radix digit at this layer.
func (l *bucketLayer) insert(t *task) {
	b := t.bucketIndex(l.layerIndex)
	l.slots[b] = append(l.slots[b], t)
	l.size++
}

// dropdown detaches and returns the slot at b, or nil if it was empty.
func (l *bucketLayer) dropdown(b int) []*task {
	tasks := l.slots[b]
	if tasks == nil {
		return nil
	}
	l.slots[b] = nil
	l.size -= len(tasks)
	return tasks
}

// isEmpty reports whether every slot in this layer is empty.
func (l *bucketLayer) isEmpty() bool {
	return l.size == 0
}
