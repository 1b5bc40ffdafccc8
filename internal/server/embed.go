package server

import "embed"

// assets contains the arena page served at "/".
//
//go:embed assets/*
var assets embed.FS
