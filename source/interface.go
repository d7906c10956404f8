package source

import (
	"context"

	"github.com/dot5enko/simple-record-grid/schema"
	"github.com/shestakovda/errx"
)

// Source is the part of the record backend the grid consumes.
type Source interface {
	FetchPage(ctx context.Context, pageIndex, pageSize int) (schema.FetchResult, error)

	Header(ctx context.Context) (schema.Header, error)
	PutHeader(ctx context.Context, header schema.Header) error
	AppendRecord(ctx context.Context, record schema.Record) error
}

var (
	ErrNetwork    = errx.New("record source request failed")
	ErrBadRequest = errx.New("invalid page request")
)
