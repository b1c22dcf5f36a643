package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/ruteri/storage-router/cryptoutils"
	"github.com/ruteri/storage-router/interfaces"
	"github.com/ruteri/storage-router/metrics"
)

// GetMutableOptions tunes a mutable fetch.
type GetMutableOptions struct {
	// PublicKey is the hex public key the envelope is expected to be signed
	// with.
	PublicKey string

	// URLs, when set, replaces per-driver URL synthesis: each driver only
	// tries the subset of URLs it claims via HandlesURL.
	URLs []string

	// DataAddress is the expected public key hash (hash160 hex or
	// base58check address) for the data key.
	DataAddress string

	// OwnerAddress, when set, is retried as a fallback authorization path if
	// decoding against DataAddress fails. Supports delegated writes.
	OwnerAddress string

	// Drivers restricts the trial set, in the given order.
	Drivers []string

	// Raw returns the serialized envelope without decoding or verification.
	Raw bool
}

// GetMutable fetches a mutable data record by its fully-qualified data ID
// and returns the verified payload. Drivers are tried in order; for each,
// candidate URLs come either from the caller (filtered by HandlesURL) or
// from the driver's own MakeMutableURL. An unhandled-URL signal from a
// driver indicates a routing mismatch, not a data problem, and moves on to
// the next candidate. Returns interfaces.ErrContentNotFound when every
// driver/URL pair is exhausted.
func (r *Router) GetMutable(ctx context.Context, fqDataID string, opts GetMutableOptions) (json.RawMessage, error) {
	start := time.Now()
	defer func() {
		metrics.OperationDuration.WithLabelValues("get_mutable").Observe(time.Since(start).Seconds())
	}()

	hints := interfaces.RequestHints{FQU: interfaces.FQDataIDName(fqDataID, r.validName)}

	for _, driver := range r.registry.selected(opts.Drivers) {
		getter, ok := driver.(interfaces.MutableGetter)
		if !ok {
			continue
		}

		for _, rawURL := range r.candidateURLs(driver, fqDataID, opts.URLs) {
			var data []byte
			err := guard(func() error {
				var gerr error
				data, gerr = getter.GetMutable(ctx, rawURL, hints)
				return gerr
			})
			if errors.Is(err, interfaces.ErrUnhandledURL) {
				r.log.Debug("Driver does not handle URL",
					slog.String("driver", driver.Name()),
					slog.String("url", rawURL))
				continue
			}
			if err != nil || len(data) == 0 {
				metrics.FetchesTotal.WithLabelValues(driver.Name(), "miss").Inc()
				r.log.Debug("No data from driver",
					slog.String("driver", driver.Name()),
					slog.String("url", rawURL),
					"err", err)
				continue
			}

			if opts.Raw {
				metrics.FetchesTotal.WithLabelValues(driver.Name(), "ok").Inc()
				r.log.Debug("Fetched (but did not decode) mutable data",
					slog.String("driver", driver.Name()),
					slog.String("url", rawURL))
				return data, nil
			}

			payload, perr := r.codec.Parse(string(data), opts.PublicKey, opts.DataAddress)
			if perr != nil && opts.OwnerAddress != "" {
				payload, perr = r.codec.Parse(string(data), opts.PublicKey, opts.OwnerAddress)
			}
			if perr != nil {
				metrics.FetchesTotal.WithLabelValues(driver.Name(), "rejected").Inc()
				r.log.Error("Undecodable mutable data",
					slog.String("url", rawURL),
					"err", perr)
				continue
			}

			metrics.FetchesTotal.WithLabelValues(driver.Name(), "ok").Inc()
			r.log.Debug("Loaded mutable data",
				slog.String("driver", driver.Name()),
				slog.String("url", rawURL),
				slog.Duration("duration", time.Since(start)))
			return payload, nil
		}
	}

	return nil, interfaces.ErrContentNotFound
}

// candidateURLs determines which URLs to try for a driver: the caller's
// URLs filtered down to the ones the driver claims, or a synthesized one.
func (r *Router) candidateURLs(driver interfaces.StorageDriver, fqDataID string, urls []string) []string {
	if urls == nil {
		maker, ok := driver.(interfaces.MutableURLMaker)
		if !ok {
			r.log.Warn("Driver cannot synthesize mutable URLs", slog.String("driver", driver.Name()))
			return nil
		}

		var made string
		err := guard(func() error {
			var merr error
			made, merr = maker.MakeMutableURL(fqDataID)
			return merr
		})
		if err != nil {
			r.log.Debug("make_mutable_url failed", slog.String("driver", driver.Name()), "err", err)
			return nil
		}
		return []string{made}
	}

	handler, ok := driver.(interfaces.URLHandler)
	if !ok {
		r.log.Warn("Driver cannot match URLs", slog.String("driver", driver.Name()))
		return nil
	}

	var out []string
	for _, u := range urls {
		if handler.HandlesURL(u) {
			out = append(out, u)
		}
	}
	return out
}

// PutMutableRequest describes a mutable write.
type PutMutableRequest struct {
	// Payload is the JSON-serializable record to sign and publish.
	Payload any

	// Key is the signing material. Multi-signature bundles are rejected
	// before any I/O.
	Key cryptoutils.KeyInfo

	// AsProfile selects the legacy profile-token envelope.
	AsProfile bool

	// Required names drivers whose failure vetoes the whole operation.
	Required []string

	// UseOnly, when non-empty, restricts the write to the named drivers.
	UseOnly []string
}

// PutMutable signs the payload once and republishes the identical envelope
// bytes to every selected driver in parallel. Success requires at least one
// driver to accept the write; required drivers veto on any failure.
func (r *Router) PutMutable(ctx context.Context, fqDataID string, req PutMutableRequest) error {
	start := time.Now()
	defer func() {
		metrics.OperationDuration.WithLabelValues("put_mutable").Observe(time.Since(start).Seconds())
	}()

	if !req.Key.Singlesig() {
		return ErrUnsupportedKey
	}

	publicKeyHex, err := cryptoutils.PublicKeyHex(req.Key.PrivateKey)
	if err != nil {
		return err
	}

	serialized, err := r.codec.Serialize(req.Payload, req.Key.PrivateKey, publicKeyHex, req.AsProfile)
	if err != nil {
		return err
	}

	hints := interfaces.RequestHints{FQU: interfaces.FQDataIDName(fqDataID, r.validName)}
	required := toSet(req.Required)
	useOnly := toSet(req.UseOnly)

	r.log.Debug("put_mutable",
		slog.String("fq_data_id", fqDataID),
		slog.Int("required", len(required)))

	type attempt struct {
		name   string
		putter interfaces.MutablePutter
	}
	var attempts []attempt
	for _, driver := range r.registry.List() {
		putter, ok := driver.(interfaces.MutablePutter)
		if !ok {
			if required[driver.Name()] {
				return fmt.Errorf("%w: required driver %q: %w", ErrReplicationFailed, driver.Name(), interfaces.ErrCapabilityMissing)
			}
			continue
		}
		if len(useOnly) > 0 && !useOnly[driver.Name()] {
			r.log.Debug("Skipping storage driver", slog.String("driver", driver.Name()))
			continue
		}
		attempts = append(attempts, attempt{driver.Name(), putter})
	}

	fanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg             sync.WaitGroup
		successes      atomic.Int64
		requiredFailed atomic.String
	)

	for _, a := range attempts {
		wg.Add(1)
		go func(a attempt) {
			defer wg.Done()

			err := guard(func() error {
				return a.putter.PutMutable(fanCtx, fqDataID, []byte(serialized), hints)
			})
			if err == nil {
				successes.Inc()
				metrics.StoresTotal.WithLabelValues(a.name, "ok").Inc()
				r.log.Debug("Replicated mutable data",
					slog.String("driver", a.name),
					slog.Int("size", len(serialized)))
				return
			}

			metrics.StoresTotal.WithLabelValues(a.name, "error").Inc()
			r.log.Debug("Failed to replicate", slog.String("driver", a.name), "err", err)
			if required[a.name] {
				requiredFailed.Store(a.name)
				cancel()
			}
		}(a)
	}
	wg.Wait()

	if name := requiredFailed.Load(); name != "" {
		return fmt.Errorf("%w: required driver %q failed", ErrReplicationFailed, name)
	}
	if successes.Load() == 0 {
		return fmt.Errorf("%w: no driver accepted the write", ErrReplicationFailed)
	}

	r.log.Debug("put_mutable done",
		slog.String("fq_data_id", fqDataID),
		slog.Int64("successes", successes.Load()),
		slog.Duration("duration", time.Since(start)))

	return nil
}

// DeleteMutable removes a mutable record from the selected drivers. The
// deletion signature covers "delete:" + fqDataID. Like immutable deletes,
// the operation is all-or-nothing: any driver failure aborts it.
func (r *Router) DeleteMutable(ctx context.Context, fqDataID string, key cryptoutils.KeyInfo, useOnly []string) error {
	if !key.Singlesig() {
		return ErrUnsupportedKey
	}

	sigB64, err := cryptoutils.SignRawData([]byte("delete:"+fqDataID), key.PrivateKey)
	if err != nil {
		return err
	}

	only := toSet(useOnly)
	for _, driver := range r.registry.List() {
		deleter, ok := driver.(interfaces.MutableDeleter)
		if !ok {
			continue
		}
		if len(only) > 0 && !only[driver.Name()] {
			r.log.Debug("Skip storage driver", slog.String("driver", driver.Name()))
			continue
		}

		err := guard(func() error {
			return deleter.DeleteMutable(ctx, fqDataID, sigB64)
		})
		if err != nil {
			r.log.Error("Failed to delete mutable data",
				slog.String("driver", driver.Name()),
				slog.String("fq_data_id", fqDataID),
				"err", err)
			return fmt.Errorf("delete failed on driver %q: %w", driver.Name(), err)
		}
	}

	return nil
}
