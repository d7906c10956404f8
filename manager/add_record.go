package manager

import (
	"context"
	"log/slog"

	"github.com/dot5enko/simple-record-grid/form"
	"github.com/dot5enko/simple-record-grid/schema"
)

// AddRecord persists a record together with its custom fields. Columns the
// header does not know yet are added to it first. Nothing is sent when the
// custom fields are invalid; on success the dataset is invalidated.
func (m *Manager) AddRecord(ctx context.Context, record schema.Record, custom []schema.CustomField) error {

	if checkErr := form.CheckCustom(custom); checkErr != nil {
		return checkErr
	}

	merged, keys := form.Merge(record, custom)

	return m.addRecord(ctx, merged, keys)
}

// Submit validates the whole form before handing it to AddRecord. Columns
// are introduced in form order.
func (m *Manager) Submit(ctx context.Context, sub form.Submission) error {

	if errs := form.Validate(sub); errs != nil {
		return form.ErrValidation.WithReason(errs)
	}

	if checkErr := form.CheckCustom(sub.Custom); checkErr != nil {
		return checkErr
	}

	merged, _ := form.Merge(sub.Record(), sub.Custom)

	return m.addRecord(ctx, merged, sub.Order())
}

func (m *Manager) addRecord(ctx context.Context, record schema.Record, keys []string) error {

	header, headerErr := m.src.Header(ctx)
	if headerErr != nil {
		return headerErr
	}

	if missing := header.Missing(keys); len(missing) > 0 {

		extended := header.Extend(missing...)

		if putErr := m.src.PutHeader(ctx, extended); putErr != nil {
			return putErr
		}

		slog.Info("header extended", "added", missing, "columns", len(extended))
	}

	if appendErr := m.src.AppendRecord(ctx, record); appendErr != nil {
		return appendErr
	}

	m.Invalidate()

	return nil
}
