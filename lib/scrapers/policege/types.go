package policege

import (
	"fmt"
	"policevideos/lib/htmlutil"
	"time"
)

type ProtocolStatus int

const (
	StatusUnknown ProtocolStatus = iota
	StatusPaidOnTime
	StatusUnpaid
)

func (s ProtocolStatus) String() string {
	switch s {
	case StatusPaidOnTime:
		return "PAID_ON_TIME"
	case StatusUnpaid:
		return "UNPAID"
	case StatusUnknown:
		return "UNKNOWN"
	}
	return fmt.Sprintf("ProtocolStatus(%d)", int(s))
}

type MediaKind int

const (
	MediaPNG MediaKind = iota
	MediaOGG
)

func (k MediaKind) String() string {
	switch k {
	case MediaPNG:
		return "PNG"
	case MediaOGG:
		return "OGG"
	}
	return fmt.Sprintf("MediaKind(%d)", int(k))
}

// Ext is the file extension media of this kind should be saved with.
func (k MediaKind) Ext() string {
	switch k {
	case MediaOGG:
		return "ogg"
	default:
		return "png"
	}
}

// Media is a single piece of evidence attached to a protocol.
type Media struct {
	Blob []byte
	Kind MediaKind
}

// Protocol is a single violation record. Number and CarNumber together
// identify it, though nothing here enforces uniqueness.
type Protocol struct {
	Number        string
	CarNumber     string
	Date          time.Time
	ViolationCode string
	// in minor units (tetri), never negative
	Amount int64
	Status ProtocolStatus
	Media  []Media
}

// ProtocolRow is a single parsed row of the listing page, Detail is only set
// when the row links to a page with media.
type ProtocolRow struct {
	Protocol Protocol
	Detail   *htmlutil.Anchor
}

// MediaRef is a media placeholder found on a detail page that has not been
// downloaded yet.
type MediaRef struct {
	Kind MediaKind
	Href string
}
