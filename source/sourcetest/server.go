// Package sourcetest provides an in-memory record backend speaking the same
// dialect as json-server, for tests and local demos.
package sourcetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/dot5enko/simple-record-grid/schema"
)

type Backend struct {
	lock    sync.RWMutex
	header  schema.Header
	records []schema.Record

	// NestedHeader answers GET /header with {"columns": [...]} instead of a list
	NestedHeader bool
	// OmitTotal drops "items" from the records payload
	OmitTotal bool
	// FailPage makes GET /records fail with 500 for that page index
	FailPage atomic.Int64

	HeaderGets   atomic.Int64
	HeaderPuts   atomic.Int64
	RecordGets   atomic.Int64
	RecordPosts  atomic.Int64
	LastPutBody  atomic.Value
	LastPostBody atomic.Value
}

func NewBackend(header schema.Header, records []schema.Record) *Backend {
	return &Backend{
		header:  header,
		records: records,
	}
}

// Generate builds n records shaped like the demo fixture.
func Generate(n int) (schema.Header, []schema.Record) {

	header := schema.Header{"id", "name", "email", "status"}
	records := make([]schema.Record, 0, n)

	for i := 1; i <= n; i++ {
		status := "inactive"
		if i%2 == 0 {
			status = "active"
		}
		records = append(records, schema.Record{
			"id":     strconv.Itoa(i),
			"name":   fmt.Sprintf("User %d", i),
			"email":  fmt.Sprintf("user%d@example.com", i),
			"status": status,
		})
	}

	return header, records
}

func (b *Backend) Start() *httptest.Server {
	return httptest.NewServer(b)
}

func (b *Backend) Header() schema.Header {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return append(schema.Header{}, b.header...)
}

func (b *Backend) Records() []schema.Record {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return append([]schema.Record{}, b.records...)
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {

	switch {
	case r.URL.Path == "/header" && r.Method == http.MethodGet:
		b.getHeader(w)
	case r.URL.Path == "/header" && r.Method == http.MethodPut:
		b.putHeader(w, r)
	case r.URL.Path == "/records" && r.Method == http.MethodGet:
		b.getRecords(w, r)
	case r.URL.Path == "/records" && r.Method == http.MethodPost:
		b.postRecord(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (b *Backend) getHeader(w http.ResponseWriter) {

	b.HeaderGets.Add(1)

	header := b.Header()

	var payload any = []string(header)
	if b.NestedHeader {
		payload = map[string][]string{"columns": header}
	}

	writeJSON(w, http.StatusOK, payload)
}

func (b *Backend) putHeader(w http.ResponseWriter, r *http.Request) {

	b.HeaderPuts.Add(1)

	var header schema.Header
	if err := json.NewDecoder(r.Body).Decode(&header); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b.lock.Lock()
	b.header = header
	b.lock.Unlock()

	b.LastPutBody.Store(header)
	writeJSON(w, http.StatusOK, header)
}

func (b *Backend) getRecords(w http.ResponseWriter, r *http.Request) {

	b.RecordGets.Add(1)

	page, pageErr := strconv.Atoi(r.URL.Query().Get("_page"))
	perPage, perPageErr := strconv.Atoi(r.URL.Query().Get("_per_page"))

	if pageErr != nil || perPageErr != nil || page < 1 || perPage < 1 {
		http.Error(w, "bad paging", http.StatusBadRequest)
		return
	}

	if int64(page) == b.FailPage.Load() {
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}

	records := b.Records()

	start := (page - 1) * perPage
	end := start + perPage

	if start > len(records) {
		start = len(records)
	}
	if end > len(records) {
		end = len(records)
	}

	rows := append([]schema.Record{}, records[start:end]...)

	payload := map[string]any{
		"data": rows,
	}
	if !b.OmitTotal {
		payload["items"] = len(records)
	}

	writeJSON(w, http.StatusOK, payload)
}

func (b *Backend) postRecord(w http.ResponseWriter, r *http.Request) {

	b.RecordPosts.Add(1)

	var record schema.Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b.lock.Lock()
	b.records = append(b.records, record)
	b.lock.Unlock()

	b.LastPostBody.Store(record)
	writeJSON(w, http.StatusCreated, record)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
