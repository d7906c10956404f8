package schema

// Page is one fetched batch of records. Index starts at 1.
type Page struct {
	Rows   []Record `json:"rows"`
	Index  int      `json:"index"`
	IsLast bool     `json:"last"`
}

func (p Page) Len() int {
	return len(p.Rows)
}

// FetchResult is the normalized answer of the record source for one page.
type FetchResult struct {
	Header Header
	Rows   []Record

	Total      int
	TotalKnown bool
}

// ToPage converts the fetch result into a cache page, deciding whether it is
// the last one. Without a known total a short page means the end of the data.
func (res FetchResult) ToPage(index, pageSize int, rowsBefore int) Page {

	isLast := len(res.Rows) < pageSize

	if res.TotalKnown && rowsBefore+len(res.Rows) >= res.Total {
		isLast = true
	}

	return Page{
		Rows:   res.Rows,
		Index:  index,
		IsLast: isLast,
	}
}
