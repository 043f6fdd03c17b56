// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package supervisor runs the long-lived Wayfinder services under a suture
// v4 supervisor tree.
//
// The tree has three layers below the "wayfinder" root:
//
//	wayfinder
//	├── data-layer      graph file watcher, report archive GC
//	├── training-layer  scheduled and interaction-triggered retraining
//	└── api-layer       HTTP server
//
// Each layer restarts its own services with exponential backoff, so a
// watcher failure never takes the HTTP server down with it. Supervisor
// events are logged through sutureslog.
package supervisor
