package db

import _ "embed"

//go:embed schema.sql
var Schema string

type ProtocolStatus int64

const (
	STATUS_UNKNOWN ProtocolStatus = iota
	STATUS_PAID_ON_TIME
	STATUS_UNPAID
)

type MediaKind int64

const (
	MEDIA_PNG MediaKind = iota
	MEDIA_OGG
)
