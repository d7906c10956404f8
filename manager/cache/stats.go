package cache

import (
	"time"

	"github.com/google/uuid"
)

type CacheStats struct {
	Generation uuid.UUID
	Created    time.Time

	Pages       int
	PackedPages int
	PackedBytes int
	Rows        int

	Reads   int64
	Unpacks int64
}
