package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/OFFIS-RIT/claimgraph/internal/util"
	"github.com/OFFIS-RIT/claimgraph/pkg/common"
	"github.com/OFFIS-RIT/claimgraph/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// ErrInterrupted reports that a resolution pass was abandoned before every
// mention was queried. The Links returned alongside it are complete for
// every mention that was processed and may be used as is.
var ErrInterrupted = errors.New("resolution interrupted")

// Links maps mention text to the canonical entity it resolved to. Mentions
// the oracle did not match are absent.
type Links map[string]common.CanonicalEntity

// Label returns the canonical label for mention.
func (l Links) Label(mention string) (string, bool) {
	e, ok := l[mention]
	if !ok {
		return "", false
	}
	return e.Label, true
}

// Labels flattens the mapping to mention -> canonical label.
func (l Links) Labels() map[string]string {
	out := make(map[string]string, len(l))
	for k, e := range l {
		out[k] = e.Label
	}
	return out
}

// Keys returns the resolved mention texts sorted lexicographically.
func (l Links) Keys() []string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entities groups the resolved mentions by canonical link, ordered by link.
func (l Links) Entities() []common.CanonicalEntity {
	byLink := make(map[string]*common.CanonicalEntity)
	for _, mention := range l.Keys() {
		e := l[mention]
		if existing, ok := byLink[e.Link]; ok {
			existing.Mentions = append(existing.Mentions, mention)
			continue
		}
		byLink[e.Link] = &common.CanonicalEntity{
			Link:     e.Link,
			Label:    e.Label,
			Mentions: []string{mention},
		}
	}

	out := make([]common.CanonicalEntity, 0, len(byLink))
	for _, e := range byLink {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Link < out[j].Link })
	return out
}

// Report summarises one resolution pass.
type Report struct {
	Calls       int      `json:"calls"`
	Resolved    []string `json:"resolved,omitempty"`
	Unresolved  []string `json:"unresolved,omitempty"`
	Failed      []string `json:"failed,omitempty"`
	Interrupted bool     `json:"interrupted"`
}

type outcome struct {
	entity   common.CanonicalEntity
	resolved bool
	err      error
}

// Integrator queries the oracle for each distinct mention of a run. It is
// meant to live for exactly one run: its memo guarantees that a mention is
// looked up at most once.
type Integrator struct {
	resolver Resolver

	group  singleflight.Group
	memoMu sync.Mutex
	memo   map[string]outcome
	calls  int
}

// NewIntegrator returns an Integrator over r. Wrap r with Throttled to
// respect the oracle's quota.
func NewIntegrator(r Resolver) *Integrator {
	return &Integrator{
		resolver: r,
		memo:     make(map[string]outcome),
	}
}

// Resolve looks up a single mention. The first candidate the oracle returns
// is accepted as canonical; no ranking is attempted. The bool result is
// false when the mention stays unresolved.
func (i *Integrator) Resolve(ctx context.Context, mention string) (common.CanonicalEntity, bool, error) {
	i.memoMu.Lock()
	if o, ok := i.memo[mention]; ok {
		i.memoMu.Unlock()
		return o.entity, o.resolved, o.err
	}
	i.memoMu.Unlock()

	v, _, _ := i.group.Do(mention, func() (any, error) {
		i.memoMu.Lock()
		if o, ok := i.memo[mention]; ok {
			i.memoMu.Unlock()
			return o, nil
		}
		i.memoMu.Unlock()

		o := i.lookup(ctx, mention)

		// canceled lookups are not memoised
		if !isCanceled(o.err) {
			i.memoMu.Lock()
			i.memo[mention] = o
			i.memoMu.Unlock()
		}
		return o, nil
	})

	o := v.(outcome)
	return o.entity, o.resolved, o.err
}

func (i *Integrator) lookup(ctx context.Context, mention string) outcome {
	i.memoMu.Lock()
	i.calls++
	i.memoMu.Unlock()

	// a failed lookup is final for this run
	candidates, err := i.callOracle(ctx, mention)
	if err != nil {
		return outcome{err: err}
	}

	for _, c := range candidates {
		link := strings.TrimSpace(util.SanitizeText(c.Link))
		if link == "" {
			continue
		}
		return outcome{
			entity: common.CanonicalEntity{
				Link:     link,
				Label:    LabelFromLink(link),
				Mentions: []string{mention},
			},
			resolved: true,
		}
	}
	return outcome{}
}

func (i *Integrator) callOracle(ctx context.Context, mention string) (candidates []common.Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("resolver panicked: %v", r)
		}
	}()
	return i.resolver.Resolve(ctx, mention)
}

// ResolveAll resolves every distinct, non-blank mention sequentially, in the
// given order. Lookup failures degrade the affected mention to unresolved.
// If ctx is cancelled the remaining mentions are abandoned and the partial
// Links are returned together with an error wrapping ErrInterrupted.
func (i *Integrator) ResolveAll(ctx context.Context, mentions []string) (Links, Report, error) {
	links := make(Links)
	report := Report{}
	seen := make(map[string]struct{}, len(mentions))
	startCalls := i.Calls()

	logger.Info("[Resolver] Resolving mentions", "count", len(mentions))

	for _, mention := range mentions {
		if strings.TrimSpace(mention) == "" {
			continue
		}
		if _, ok := seen[mention]; ok {
			continue
		}
		seen[mention] = struct{}{}

		if ctx.Err() != nil {
			return i.interrupted(links, report, startCalls, ctx.Err())
		}

		entity, ok, err := i.Resolve(ctx, mention)
		switch {
		case err != nil && isCanceled(err) && ctx.Err() != nil:
			return i.interrupted(links, report, startCalls, ctx.Err())
		case err != nil:
			logger.Warn("[Resolver] Lookup failed, leaving mention unresolved", "mention", mention, "err", err)
			report.Failed = append(report.Failed, mention)
			report.Unresolved = append(report.Unresolved, mention)
		case ok:
			links[mention] = entity
			report.Resolved = append(report.Resolved, mention)
		default:
			report.Unresolved = append(report.Unresolved, mention)
		}
	}

	report.Calls = i.Calls() - startCalls
	logger.Info(
		"[Resolver] Resolution completed",
		"resolved", len(report.Resolved),
		"unresolved", len(report.Unresolved),
		"failed", len(report.Failed),
		"calls", report.Calls,
	)
	return links, report, nil
}

func (i *Integrator) interrupted(links Links, report Report, startCalls int, cause error) (Links, Report, error) {
	report.Interrupted = true
	report.Calls = i.Calls() - startCalls
	logger.Warn("[Resolver] Resolution interrupted, continuing with partial links", "resolved", len(report.Resolved), "err", cause)
	return links, report, fmt.Errorf("%w: %w", ErrInterrupted, cause)
}

// Calls returns how many oracle calls this Integrator has made.
func (i *Integrator) Calls() int {
	i.memoMu.Lock()
	defer i.memoMu.Unlock()
	return i.calls
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
