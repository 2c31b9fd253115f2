package app

import (
	"context"
	"errors"
	"time"

	"journey/internal/codec"
	"journey/internal/domain"
)

// ErrImportCancelled is returned when the user declines to overwrite
// existing entries.
var ErrImportCancelled = errors.New("import cancelled")

// Confirmer decides whether an import may overwrite existing entries.
type Confirmer interface {
	ConfirmOverwrite(existing, incoming int) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(existing, incoming int) bool

// ConfirmOverwrite calls f.
func (f ConfirmFunc) ConfirmOverwrite(existing, incoming int) bool { return f(existing, incoming) }

// Importer moves CSV data in and out of a RecordStore.
type Importer struct {
	store *RecordStore
	ids   domain.IDGenerator
}

// NewImporter creates an Importer over store, minting IDs from ids.
func NewImporter(store *RecordStore, ids domain.IDGenerator) *Importer {
	return &Importer{store: store, ids: ids}
}

// Import decodes text and replaces the stored logs with it. Decoding errors
// are returned before anything changes. When entries already exist, confirm
// is asked first; a nil confirm refuses the overwrite.
func (im *Importer) Import(ctx context.Context, text string, confirm Confirmer) (domain.State, error) {
	logs, err := codec.Decode(text, im.ids)
	if err != nil {
		return domain.State{}, err
	}
	if existing := len(im.store.State().Logs); existing > 0 {
		if confirm == nil || !confirm.ConfirmOverwrite(existing, len(logs)) {
			return domain.State{}, ErrImportCancelled
		}
	}
	return im.store.ReplaceAll(ctx, logs), nil
}

// Export encodes the stored logs in the preferred unit and names the file
// after now.
func (im *Importer) Export(now time.Time) (filename, content string) {
	state := im.store.State()
	return codec.ExportFilename(now), codec.Encode(state.Logs, state.Unit)
}
