// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package migrations embeds the SQL schema for every supported dialect.
package migrations

import "embed"

// FS holds sqlite/*.sql and postgres/*.sql in golang-migrate naming.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
