package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/ruteri/storage-router/cryptoutils"
	"github.com/ruteri/storage-router/envelope"
	"github.com/ruteri/storage-router/hashing"
	"github.com/ruteri/storage-router/interfaces"
	"github.com/ruteri/storage-router/metrics"
)

// ErrReplicationFailed is returned when a required driver failed an operation
// or no driver at all accepted it.
var ErrReplicationFailed = fmt.Errorf("replication failed")

// ErrUnsupportedKey mirrors the signer's precondition error for callers that
// only import this package.
var ErrUnsupportedKey = cryptoutils.ErrUnsupportedKey

// Router dispatches immutable and mutable data operations across the
// registered drivers, verifying everything fetched from untrusted transport
// against its content hash or envelope signature before surfacing it.
//
// Per-driver faults never cross the router boundary: they are downgraded to
// misses unless the driver is in the caller's required set.
type Router struct {
	registry  *DriverRegistry
	fetcher   interfaces.URLFetcher
	codec     *envelope.Codec
	validName interfaces.NameValidator
	log       *slog.Logger
}

// RouterConfig wires the router's collaborators. Registry is mandatory;
// everything else gets a sensible default.
type RouterConfig struct {
	Registry      *DriverRegistry
	Fetcher       interfaces.URLFetcher
	Codec         *envelope.Codec
	NameValidator interfaces.NameValidator
	Log           *slog.Logger
}

// NewRouter creates a storage router over the given registry.
func NewRouter(cfg RouterConfig) *Router {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = NewHTTPFetcher(0, log)
	}

	codec := cfg.Codec
	if codec == nil {
		codec = envelope.NewCodec(nil)
	}

	validName := cfg.NameValidator
	if validName == nil {
		validName = interfaces.DefaultNameValidator
	}

	return &Router{
		registry:  cfg.Registry,
		fetcher:   fetcher,
		codec:     codec,
		validName: validName,
		log:       log,
	}
}

// Registry exposes the driver registry backing this router.
func (r *Router) Registry() *DriverRegistry { return r.registry }

// GetImmutableOptions tunes an immutable fetch.
type GetImmutableOptions struct {
	// URLHint is tried before any driver, via the generic URL fetcher.
	URLHint string

	// HashFunc selects the verification oracle. Defaults to
	// hashing.ContentHash; announcements and zonefiles use hashing.ChainHash.
	HashFunc hashing.HashFunc

	// Hints are passed through to every driver.
	Hints interfaces.RequestHints

	// Drivers restricts the trial set to the named drivers, in the given
	// order. Nil means all registered drivers in registration order.
	Drivers []string

	// Raw skips the JSON well-formedness check on the fetched bytes.
	Raw bool
}

// GetImmutable fetches immutable data by hash. Candidates are tried in
// order: the URL hint first, then the selected drivers. Bytes whose
// recomputed hash differs from the requested hash are discarded and the
// candidate counted as failed; they are never surfaced, even partially.
// Returns interfaces.ErrContentNotFound once every candidate is exhausted.
func (r *Router) GetImmutable(ctx context.Context, hash string, opts GetImmutableOptions) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.OperationDuration.WithLabelValues("get_immutable").Observe(time.Since(start).Seconds())
	}()

	hashFunc := opts.HashFunc
	if hashFunc == nil {
		hashFunc = hashing.ContentHash
	}

	if opts.URLHint != "" {
		data, err := r.fetchHint(ctx, opts.URLHint)
		if err != nil {
			r.log.Debug("URL hint failed", slog.String("url", opts.URLHint), "err", err)
		} else if out, ok := r.acceptImmutable(data, hash, hashFunc, opts.Raw, opts.URLHint); ok {
			return out, nil
		}
	}

	for _, driver := range r.registry.selected(opts.Drivers) {
		getter, ok := driver.(interfaces.ImmutableGetter)
		if !ok {
			r.log.Debug("Driver lacks get_immutable", slog.String("driver", driver.Name()))
			continue
		}

		var data []byte
		err := guard(func() error {
			var err error
			data, err = getter.GetImmutable(ctx, hash, opts.Hints)
			return err
		})
		if err != nil || data == nil {
			metrics.FetchesTotal.WithLabelValues(driver.Name(), "miss").Inc()
			r.log.Debug("No data from driver",
				slog.String("driver", driver.Name()),
				slog.String("hash", hash),
				"err", err)
			continue
		}

		if out, ok := r.acceptImmutable(data, hash, hashFunc, opts.Raw, driver.Name()); ok {
			metrics.FetchesTotal.WithLabelValues(driver.Name(), "ok").Inc()
			r.log.Debug("Loaded immutable data",
				slog.String("driver", driver.Name()),
				slog.String("hash", hash),
				slog.Duration("duration", time.Since(start)))
			return out, nil
		}
		metrics.FetchesTotal.WithLabelValues(driver.Name(), "rejected").Inc()
	}

	return nil, interfaces.ErrContentNotFound
}

// acceptImmutable applies the integrity oracle and the optional JSON check.
func (r *Router) acceptImmutable(data []byte, hash string, hashFunc hashing.HashFunc, raw bool, source string) ([]byte, bool) {
	if recomputed := hashFunc(data); recomputed != hash {
		r.log.Error("Hash mismatch on fetched data",
			slog.String("source", source),
			slog.String("expected", hash),
			slog.String("actual", recomputed))
		return nil, false
	}

	if !raw && !json.Valid(data) {
		r.log.Error("Invalid JSON for immutable data",
			slog.String("source", source),
			slog.String("hash", hash))
		return nil, false
	}

	return data, true
}

func (r *Router) fetchHint(ctx context.Context, rawURL string) (data []byte, err error) {
	err = guard(func() error {
		var ferr error
		data, ferr = r.fetcher.FetchURL(ctx, rawURL)
		return ferr
	})
	return data, err
}

// PutImmutableRequest describes an immutable write. Exactly one of Payload
// or the Hash+Data pair must be supplied: either unhashed JSON, or a
// pre-hashed pre-serialized blob (announcements use the latter).
type PutImmutableRequest struct {
	Payload  any
	Hash     string
	Data     []byte
	TxID     string
	Required []string
}

// PutImmutable replicates immutable data to every registered driver with the
// put capability, in parallel. This is a best-effort broadcast: the write
// succeeds (returning the hash) if at least one driver accepted it. Drivers
// named in Required are hard dependencies; any failure of one, including a
// missing capability, vetoes the whole operation.
func (r *Router) PutImmutable(ctx context.Context, req PutImmutableRequest) (string, error) {
	start := time.Now()
	defer func() {
		metrics.OperationDuration.WithLabelValues("put_immutable").Observe(time.Since(start).Seconds())
	}()

	havePayload := req.Payload != nil && req.Hash == "" && req.Data == nil
	haveBlob := req.Hash != "" && req.Data != nil
	if havePayload == haveBlob {
		return "", fmt.Errorf("need data hash and text, or just a payload")
	}

	data := req.Data
	hash := req.Hash
	if havePayload {
		text, err := envelope.SerializeImmutable(req.Payload)
		if err != nil {
			return "", err
		}
		data = []byte(text)
		hash = hashing.ContentHash(data)
	}

	required := toSet(req.Required)
	r.log.Debug("put_immutable",
		slog.String("hash", hash),
		slog.Int("required", len(required)))

	type attempt struct {
		name   string
		putter interfaces.ImmutablePutter
	}
	var attempts []attempt
	for _, driver := range r.registry.List() {
		putter, ok := driver.(interfaces.ImmutablePutter)
		if !ok {
			if required[driver.Name()] {
				return "", fmt.Errorf("%w: required driver %q: %w", ErrReplicationFailed, driver.Name(), interfaces.ErrCapabilityMissing)
			}
			metrics.StoresTotal.WithLabelValues(driver.Name(), "skipped").Inc()
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
				return a.putter.PutImmutable(fanCtx, hash, data, req.TxID)
			})
			if err == nil {
				successes.Inc()
				metrics.StoresTotal.WithLabelValues(a.name, "ok").Inc()
				r.log.Debug("Replication succeeded", slog.String("driver", a.name), slog.String("hash", hash))
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
		return "", fmt.Errorf("%w: required driver %q failed", ErrReplicationFailed, name)
	}
	if successes.Load() == 0 {
		return "", fmt.Errorf("%w: no driver accepted the write", ErrReplicationFailed)
	}

	r.log.Debug("put_immutable done",
		slog.String("hash", hash),
		slog.Int64("successes", successes.Load()),
		slog.Duration("duration", time.Since(start)))

	return hash, nil
}

// DeleteImmutable removes immutable data from every driver with the delete
// capability. A deletion signature over "delete:" + hash + txid authorizes
// the request. Unlike puts, delete is all-or-nothing: any driver failure
// aborts the operation, since a partial delete leaves inconsistent
// visibility. Drivers without the capability are skipped silently.
func (r *Router) DeleteImmutable(ctx context.Context, hash, txid string, key cryptoutils.KeyInfo) error {
	if !key.Singlesig() {
		return ErrUnsupportedKey
	}

	sigB64, err := cryptoutils.SignRawData([]byte("delete:"+hash+txid), key.PrivateKey)
	if err != nil {
		return err
	}

	for _, driver := range r.registry.List() {
		deleter, ok := driver.(interfaces.ImmutableDeleter)
		if !ok {
			continue
		}

		err := guard(func() error {
			return deleter.DeleteImmutable(ctx, hash, txid, sigB64)
		})
		if err != nil {
			r.log.Error("Failed to delete immutable data",
				slog.String("driver", driver.Name()),
				slog.String("hash", hash),
				"err", err)
			return fmt.Errorf("delete failed on driver %q: %w", driver.Name(), err)
		}
	}

	return nil
}

// guard runs a driver call, converting any panic into an error so one
// misbehaving driver never takes down a fan-out.
func guard(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("driver panicked: %v", rec)
		}
	}()
	return fn()
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
