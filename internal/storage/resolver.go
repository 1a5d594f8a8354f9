package storage

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentSigns bounds the fan-out of a single ResolveAll call.
const maxConcurrentSigns = 16

var absoluteURL = regexp.MustCompile(`(?i)^https?://`)

// Signer issues a viewable URL for an object key.
// *S3Store satisfies it.
type Signer interface {
	SignForView(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// SignObserver is notified after every signing call. It may be nil.
type SignObserver interface {
	ObserveSign(elapsed time.Duration, err error)
}

// Resolver turns persisted references into URLs a browser can load.
// References are either object keys, which are signed on every call, or
// legacy absolute http(s) URLs, which are returned untouched.
// Resolved URLs must never be written back to the store.
type Resolver struct {
	signer   Signer
	expiry   time.Duration
	observer SignObserver
}

// NewResolver builds a Resolver. A non-positive expiry uses DefaultViewExpiry.
func NewResolver(signer Signer, expiry time.Duration, observer SignObserver) *Resolver {
	if expiry <= 0 {
		expiry = DefaultViewExpiry
	}
	return &Resolver{signer: signer, expiry: expiry, observer: observer}
}

// IsAbsoluteURL reports whether ref is an http(s) URL rather than an object key.
func IsAbsoluteURL(ref string) bool {
	return absoluteURL.MatchString(ref)
}

// Resolve returns a fresh URL for ref. An empty ref resolves to "".
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	if ref == "" || IsAbsoluteURL(ref) {
		return ref, nil
	}

	start := time.Now()
	u, err := r.signer.SignForView(ctx, ref, r.expiry)
	if r.observer != nil {
		r.observer.ObserveSign(time.Since(start), err)
	}
	if err != nil {
		return "", fmt.Errorf("storage.Resolver.Resolve: %w", err)
	}
	return u, nil
}

// ResolveAll resolves refs concurrently and returns URLs in input order.
// If any reference fails the whole batch fails and outstanding calls are
// cancelled; a partially signed list is never returned.
func (r *Resolver) ResolveAll(ctx context.Context, refs []string) ([]string, error) {
	out := make([]string, len(refs))
	if len(refs) == 0 {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSigns)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			u, err := r.Resolve(gctx, ref)
			if err != nil {
				return err
			}
			out[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("storage.Resolver.ResolveAll: %w", err)
	}
	return out, nil
}
