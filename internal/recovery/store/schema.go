package store

import _ "embed"

// Schema is the DDL for the recovery core's tables. The integration test
// harness applies it to fresh containers.
//
//go:embed schema.sql
var Schema string
