// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

/*
Command server runs the Wayfinder navigation service.

Wayfinder recommends the next resource directory for a professional based
on the directory they are in, their professional stage and what similar
users went on to open. It records anonymized interactions, classifies
users into stages, validates recommendation quality against held-out data
and retrains its learned re-ranker on a schedule.

# Process layout

	wayfinder
	├── data-layer
	│   ├── graph-watcher   (GRAPH_WATCH=true)
	│   └── archive-gc      (REPORTS_PATH set)
	├── training-layer
	│   └── retrain-service
	└── api-layer
	    └── http-server

# Configuration

Settings are layered, highest priority last:

 1. Built-in defaults
 2. A YAML file: CONFIG_PATH, ./config.yaml, ./config.yml or /etc/wayfinder/config.yaml
 3. Environment variables, optionally seeded from a .env file in the working directory

Common variables:

	HTTP_PORT=8750
	GRAPH_PATH=/data/cross_reference_metadata.json
	DB_DRIVER=duckdb            # or sqlite
	DUCKDB_PATH=/data/wayfinder.duckdb
	USER_HASH_SALT=<secret>
	REQUIRE_CONSENT=false
	RETRAIN_SCHEDULE=@weekly
	REPORTS_PATH=/data/reports
	LOG_LEVEL=info
	LOG_FORMAT=json

# Signals

SIGINT and SIGTERM cancel the root context. The HTTP server drains for
SHUTDOWN_TIMEOUT, then the store, archive and bus are closed.
*/
package main
