package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/dot5enko/simple-record-grid/schema"
	"github.com/shestakovda/errx"
	"golang.org/x/sync/errgroup"
)

// how much of a malformed body goes into the debug dump
const payloadDumpLimit = 512

// Client talks to a json-server style backend:
//
//	GET  /header                       -> ["id", ...] or {"columns": [...]}
//	PUT  /header                       <- {"columns": [...]}
//	GET  /records?_page=P&_per_page=L  -> {"data": [...], "items": N}
//	POST /records                      <- {"id": "1", ...}
type Client struct {
	baseURL *url.URL
	opts    options
}

func New(baseURL string, args ...Option) (*Client, error) {

	parsed, parseErr := url.Parse(strings.TrimRight(baseURL, "/"))
	if parseErr != nil {
		return nil, ErrBadRequest.WithReason(parseErr)
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, ErrBadRequest.WithDebug(errx.Debug{"url": baseURL})
	}

	return &Client{
		baseURL: parsed,
		opts:    getOpts(args),
	}, nil
}

type recordsPayload struct {
	Data  json.RawMessage `json:"data"`
	Items json.RawMessage `json:"items"`
}

var errNoData = errors.New("records payload has no data list")

// FetchPage loads the header and one page of records at the same time and
// normalizes both into a single result.
func (c *Client) FetchPage(ctx context.Context, pageIndex, pageSize int) (schema.FetchResult, error) {

	if pageIndex < 1 || pageSize < 1 {
		return schema.FetchResult{}, ErrBadRequest.WithDebug(errx.Debug{
			"page":     pageIndex,
			"per_page": pageSize,
		})
	}

	var result schema.FetchResult

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		header, headerErr := c.Header(groupCtx)
		if headerErr != nil {
			return headerErr
		}
		result.Header = header
		return nil
	})

	group.Go(func() error {
		rows, total, known, recordsErr := c.records(groupCtx, pageIndex, pageSize)
		if recordsErr != nil {
			return recordsErr
		}
		result.Rows = rows
		result.Total = total
		result.TotalKnown = known
		return nil
	})

	if err := group.Wait(); err != nil {
		return schema.FetchResult{}, err
	}

	return result, nil
}

func (c *Client) Header(ctx context.Context) (schema.Header, error) {

	var header schema.Header

	if err := c.do(ctx, http.MethodGet, c.endpoint("header", nil), nil, &header); err != nil {
		return nil, err
	}

	return header, nil
}

func (c *Client) PutHeader(ctx context.Context, header schema.Header) error {
	return c.do(ctx, http.MethodPut, c.endpoint("header", nil), header, nil)
}

func (c *Client) AppendRecord(ctx context.Context, record schema.Record) error {
	return c.do(ctx, http.MethodPost, c.endpoint("records", nil), record, nil)
}

func (c *Client) records(ctx context.Context, pageIndex, pageSize int) (rows []schema.Record, total int, known bool, err error) {

	query := url.Values{}
	query.Set("_page", strconv.Itoa(pageIndex))
	query.Set("_per_page", strconv.Itoa(pageSize))

	var raw json.RawMessage

	if err = c.do(ctx, http.MethodGet, c.endpoint("records", query), nil, &raw); err != nil {
		return nil, 0, false, err
	}

	trimmed := bytes.TrimSpace(raw)

	// older json-server versions answer with a bare list
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err = json.Unmarshal(trimmed, &rows); err != nil {
			return nil, 0, false, c.malformed(c.endpoint("records", query), trimmed, err)
		}
		return rows, 0, false, nil
	}

	var payload recordsPayload
	if err = json.Unmarshal(trimmed, &payload); err != nil {
		return nil, 0, false, c.malformed(c.endpoint("records", query), trimmed, err)
	}

	total, known, err = parseTotal(payload.Items)
	if err != nil {
		return nil, 0, false, c.malformed(c.endpoint("records", query), trimmed, err)
	}

	data := bytes.TrimSpace(payload.Data)

	// an object without a data list is an error reply, not an empty page
	if len(data) == 0 || data[0] != '[' {
		return nil, 0, false, c.malformed(c.endpoint("records", query), trimmed, errNoData)
	}

	if err = json.Unmarshal(data, &rows); err != nil {
		return nil, 0, false, c.malformed(c.endpoint("records", query), trimmed, err)
	}

	if rows == nil {
		rows = []schema.Record{}
	}

	return rows, total, known, nil
}

// parseTotal accepts `120`, `"120"` or nothing at all.
func parseTotal(raw json.RawMessage) (int, bool, error) {

	trimmed := bytes.TrimSpace(raw)

	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return 0, false, nil
	}

	var number json.Number

	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return 0, false, err
		}
		if strings.TrimSpace(text) == "" {
			return 0, false, nil
		}
		number = json.Number(strings.TrimSpace(text))
	} else {
		number = json.Number(trimmed)
	}

	total, err := number.Int64()
	if err != nil {
		return 0, false, fmt.Errorf("items is not an integer: %s", err.Error())
	}

	if total < 0 {
		return 0, false, fmt.Errorf("items is negative: %d", total)
	}

	return int(total), true, nil
}

func (c *Client) endpoint(path string, query url.Values) string {

	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + path

	if query != nil {
		u.RawQuery = query.Encode()
	}

	return u.String()
}

func (c *Client) do(ctx context.Context, method, target string, body any, out any) (err error) {

	if c.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.timeout)
		defer cancel()
	}

	var reader io.Reader

	if body != nil {
		encoded, encodeErr := json.Marshal(body)
		if encodeErr != nil {
			return ErrBadRequest.WithReason(encodeErr)
		}
		reader = bytes.NewReader(encoded)
	}

	req, reqErr := http.NewRequestWithContext(ctx, method, target, reader)
	if reqErr != nil {
		return ErrBadRequest.WithReason(reqErr)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.opts.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, respErr := c.opts.httpClient.Do(req)
	if respErr != nil {
		return ErrNetwork.WithReason(respErr).WithDebug(errx.Debug{
			"method": method,
			"url":    target,
		})
	}
	defer resp.Body.Close()

	payload, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return ErrNetwork.WithReason(readErr).WithDebug(errx.Debug{
			"method": method,
			"url":    target,
		})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ErrNetwork.WithReason(fmt.Errorf("unexpected status %s", resp.Status)).WithDebug(errx.Debug{
			"method": method,
			"url":    target,
			"status": resp.StatusCode,
		})
	}

	if out == nil {
		return nil
	}

	if len(bytes.TrimSpace(payload)) == 0 {
		return c.malformed(target, payload, fmt.Errorf("empty body"))
	}

	if decodeErr := json.Unmarshal(payload, out); decodeErr != nil {
		return c.malformed(target, payload, decodeErr)
	}

	return nil
}

func (c *Client) malformed(target string, payload []byte, reason error) error {

	shown := payload
	if len(shown) > payloadDumpLimit {
		shown = shown[:payloadDumpLimit]
	}

	slog.Debug("malformed record source payload", "url", target, "reason", reason.Error(), "payload", spew.Sdump(shown))

	return ErrNetwork.WithReason(reason).WithDebug(errx.Debug{
		"url": target,
	})
}
