// Package snapshot copies the POS store to and from gzip-compressed JSON
// files.
package snapshot

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/oolio-pos/internal/domain/sale"
	"github.com/xenking/oolio-pos/internal/kv"
)

const formatVersion = 1

// Keys are the store keys a snapshot carries.
var Keys = []string{kv.KeyMenu, kv.KeySales, kv.KeyCart}

// ErrUnknownKey is returned by Import for entries outside Keys.
var ErrUnknownKey = errors.New("unknown snapshot key")

// ErrWouldDropSales is returned by Import when the snapshot ledger lacks
// transactions the store already holds.
var ErrWouldDropSales = errors.New("import would drop recorded sales")

// ImportOptions tunes Import.
type ImportOptions struct {
	// Force replaces the stored ledger even if sales would be lost.
	Force bool
}

// Snapshot is the decoded content of a snapshot file.
type Snapshot struct {
	Version    int
	ExportedAt time.Time
	// Entries maps store keys to their raw values. Absent keys are omitted.
	Entries map[string]string
}

// Read loads every key in Keys from store concurrently.
func Read(ctx context.Context, store kv.Store) (*Snapshot, error) {
	var (
		mu      sync.Mutex
		entries = make(map[string]string, len(Keys))
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, key := range Keys {
		g.Go(func() error {
			v, err := store.Get(ctx, key)
			if errors.Is(err, kv.ErrNotFound) {
				return nil
			}
			if err != nil {
				return errors.Wrapf(err, "read %s", key)
			}
			mu.Lock()
			entries[key] = v
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Snapshot{Version: formatVersion, ExportedAt: time.Now(), Entries: entries}, nil
}

// Export writes the store content to w as gzip-compressed JSON.
func Export(ctx context.Context, store kv.Store, w io.Writer) (*Snapshot, error) {
	s, err := Read(ctx, store)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(s.Entries))
	for k := range s.Entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("version", func(e *jx.Encoder) { e.Int(s.Version) })
		e.Field("exportedAt", func(e *jx.Encoder) { e.Int64(s.ExportedAt.UnixMilli()) })
		e.Field("entries", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, k := range keys {
					e.Field(k, func(e *jx.Encoder) { e.Str(s.Entries[k]) })
				}
			})
		})
	})

	gz := pgzip.NewWriter(w)
	if _, err := gz.Write(e.Bytes()); err != nil {
		return nil, errors.Wrap(err, "write snapshot")
	}
	if err := gz.Close(); err != nil {
		return nil, errors.Wrap(err, "flush snapshot")
	}
	return s, nil
}

// Decode reads a snapshot written by Export.
func Decode(r io.Reader) (*Snapshot, error) {
	gz, err := pgzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "open gzip")
	}
	defer func() { _ = gz.Close() }()

	data, err := io.ReadAll(gz)
	if err != nil {
		return nil, errors.Wrap(err, "read snapshot")
	}

	s := &Snapshot{Entries: map[string]string{}}
	if err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "version":
			v, err := d.Int()
			s.Version = v
			return err
		case "exportedAt":
			ms, err := d.Int64()
			s.ExportedAt = time.UnixMilli(ms)
			return err
		case "entries":
			return d.Obj(func(d *jx.Decoder, k string) error {
				v, err := d.Str()
				s.Entries[k] = v
				return err
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, errors.Wrap(err, "decode snapshot")
	}
	if s.Version != formatVersion {
		return nil, errors.Errorf("unsupported snapshot version %d", s.Version)
	}
	return s, nil
}

// Import decodes a snapshot from r and writes its entries to store. Nothing
// is written unless every entry is a known key holding valid JSON and, unless
// opts.Force is set, the imported ledger keeps every stored transaction.
func Import(ctx context.Context, store kv.Store, r io.Reader, opts ImportOptions) (*Snapshot, error) {
	s, err := Decode(r)
	if err != nil {
		return nil, err
	}
	for k, v := range s.Entries {
		if !slices.Contains(Keys, k) {
			return nil, errors.Wrapf(ErrUnknownKey, "%q", k)
		}
		if !jx.Valid([]byte(v)) {
			return nil, errors.Errorf("entry %s is not valid JSON", k)
		}
	}
	if raw, ok := s.Entries[kv.KeySales]; ok && !opts.Force {
		if err := checkSales(ctx, store, raw); err != nil {
			return nil, err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	for k, v := range s.Entries {
		g.Go(func() error {
			if err := store.Set(ctx, k, v); err != nil {
				return errors.Wrapf(err, "write %s", k)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}

// checkSales refuses an imported ledger that misses stored transactions.
func checkSales(ctx context.Context, store kv.Store, imported string) error {
	next, err := sale.ParseSales(imported)
	if err != nil {
		return errors.Wrap(err, "imported sales")
	}
	raw, err := store.Get(ctx, kv.KeySales)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "read stored sales")
	}
	current, err := sale.ParseSales(raw)
	if err != nil {
		return errors.Wrapf(ErrWouldDropSales, "stored ledger unreadable: %s", err)
	}

	kept := make(map[string]struct{}, len(next))
	for _, s := range next {
		kept[s.TransactionID] = struct{}{}
	}
	var missing int
	for _, s := range current {
		if _, ok := kept[s.TransactionID]; !ok {
			missing++
		}
	}
	if missing > 0 {
		return errors.Wrapf(ErrWouldDropSales, "%d of %d", missing, len(current))
	}
	return nil
}
