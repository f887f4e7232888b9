// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package workerpool provides a generic, bounded worker pool used to fan
// out independent units of work — such as per-file blame — with a fixed
// concurrency ceiling.
package workerpool
