// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root

package wheel

import (
	"os"
	"strconv"
)

// defaultBufferPoolSize is the advisory size hint for the hand-vector pool
// when TW_BUFFER_POOL_SIZE is unset or invalid.
const defaultBufferPoolSize = 1024

// bufferPoolSizeFromEnv reads TW_BUFFER_POOL_SIZE, the one process-wide
// configuration knob this package recognizes. A single integer env var
// doesn't warrant pulling in a structured-config library; os.Getenv plus
// strconv is the plain, idiomatic reach for this in the reference corpus
// for something this small.
func bufferPoolSizeFromEnv() int {
	raw, ok := os.LookupEnv("TW_BUFFER_POOL_SIZE")
	if !ok {
		return defaultBufferPoolSize
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultBufferPoolSize
	}
	return n
}
