// Copyright 2025 The Sigstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package review checks a commit's signatures against every configured
// keyring and folds the verdicts into one status.
package review

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sigstore/git-review/pkg/commit"
	"github.com/sigstore/git-review/pkg/gpgstatus"
	"github.com/sigstore/git-review/pkg/interfaces"
	"github.com/sigstore/git-review/pkg/keyring"
	"github.com/sigstore/git-review/pkg/logging"
	"github.com/sigstore/git-review/pkg/objectid"
	"github.com/sigstore/git-review/pkg/tracing"
	"github.com/sigstore/git-review/pkg/verify"
)

// DefaultConcurrency bounds the number of verifier processes in flight.
const DefaultConcurrency = 4

// Report is what a review found out about one commit.
type Report struct {
	ID      string          `json:"id"`
	Tree    string          `json:"tree"`
	Parents []string        `json:"parents"`
	Headers []commit.Header `json:"headers"`
	Message string          `json:"message"`
	Signed  bool            `json:"signed"`
	// Signatures is the aggregated verdict.
	Signatures verify.Status `json:"signatures"`
	// Keyrings holds the per-keyring results the verdict was built from.
	Keyrings []verify.KeyringResults `json:"-"`
}

// Reviewer verifies commits. It never modifies them.
type Reviewer struct {
	Store    interfaces.ObjectStore
	Verifier interfaces.Verifier
	Keyrings []keyring.Keyring
	Logger   logging.Logger
	// Concurrency bounds parallel verifications; DefaultConcurrency if zero.
	Concurrency int
}

// Review reads the commit rev names and reviews it.
func (r *Reviewer) Review(ctx context.Context, rev string) (Report, error) {
	var report Report
	err := tracing.Run(ctx, tracing.SpanReview, map[string]interface{}{"rev": rev, "keyrings": len(r.Keyrings)}, func(ctx context.Context) error {
		raw, err := r.Store.Read(ctx, rev)
		if err != nil {
			return fmt.Errorf("reading %s: %w", rev, err)
		}
		obj, err := commit.Parse(raw)
		if err != nil {
			return err
		}

		report, err = r.ReviewObject(ctx, obj)
		return err
	})
	if err != nil {
		return Report{}, err
	}
	return report, nil
}

// ReviewObject reviews an already parsed commit.
func (r *Reviewer) ReviewObject(ctx context.Context, obj *commit.Object) (Report, error) {
	format, err := r.objectFormat(ctx)
	if err != nil {
		return Report{}, err
	}
	tree, _ := obj.Header("tree")
	report := Report{
		ID:      objectid.Compute(format, objectid.TypeCommit, obj.Raw()).String(),
		Tree:    tree,
		Parents: obj.Values("parent"),
		Headers: obj.Headers,
		Message: string(obj.Message),
		Signed:  obj.HasSignature(),
	}
	log := logging.EnsureLogger(r.Logger).WithField("commit", report.ID)

	results, err := r.verifyAll(ctx, obj, log)
	if err != nil {
		return Report{}, err
	}
	report.Keyrings = results

	report.Signatures, err = verify.Aggregate(results)
	if err != nil {
		return Report{}, err
	}
	for _, k := range report.Signatures.Keys {
		if k.MissingKey {
			log.Warn("no keyring holds key %s", k.KeyID)
		}
	}
	return report, nil
}

// objectFormat is the store's object format, or SHA-1 when the reviewer
// has no store.
func (r *Reviewer) objectFormat(ctx context.Context) (objectid.Format, error) {
	if r.Store == nil {
		return objectid.SHA1, nil
	}
	return r.Store.ObjectFormat(ctx)
}

// verifyAll runs the verifier once per keyring. Results are stored by
// keyring position so their order does not depend on scheduling.
func (r *Reviewer) verifyAll(ctx context.Context, obj *commit.Object, log logging.Logger) ([]verify.KeyringResults, error) {
	results := make([]verify.KeyringResults, len(r.Keyrings))
	for i, kr := range r.Keyrings {
		results[i].Keyring = kr
	}

	signature, signed := obj.Signature()
	if !signed {
		log.Debugln("commit is not signed")
		return results, nil
	}
	payload := obj.SignablePayload()

	limit := r.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, kr := range r.Keyrings {
		i, kr := i, kr
		g.Go(func() error {
			return tracing.Run(ctx, tracing.SpanVerifyKeyring, map[string]interface{}{"keyring": kr.ID}, func(ctx context.Context) error {
				transcript, err := r.Verifier.Verify(ctx, signature, payload, kr)
				if err != nil {
					return fmt.Errorf("keyring %s: %w", kr.ID, err)
				}
				res, err := gpgstatus.ParseTranscript(transcript)
				if err != nil {
					return fmt.Errorf("keyring %s: %w", kr.ID, err)
				}
				for _, s := range res {
					log.WithFields(map[string]interface{}{
						"keyring": kr.ID,
						"key":     s.KeyID,
						"valid":   s.Valid,
						"missing": s.MissingKey,
					}).Debugln("signature checked")
				}
				results[i].Results = res
				return nil
			})
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
