// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root

package wheel

const (
	layerBits = 6
	layerSize = 1 << layerBits // slots per layer
	layerMask = layerSize - 1

	// maxLayers bounds the radix-64 decomposition of a 64-bit logical
	// clock: ceil(64/6).
	maxLayers = 11

	// minDelayMS and maxDelayMS bound a registered delay, in milliseconds.
	// maxDelayMS matches the original binding's 32-bit delay field.
	minDelayMS = 1
	maxDelayMS = 0xFFFFFFFF
)
