package resolver

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/OFFIS-RIT/claimgraph/pkg/common"
	"github.com/OFFIS-RIT/claimgraph/pkg/ratelimit"
)

// Resolver is the disambiguation oracle. An empty result with a nil error
// means the text matched nothing.
type Resolver interface {
	Resolve(ctx context.Context, text string) ([]common.Candidate, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, text string) ([]common.Candidate, error)

func (f ResolverFunc) Resolve(ctx context.Context, text string) ([]common.Candidate, error) {
	return f(ctx, text)
}

type throttledResolver struct {
	next     Resolver
	throttle *ratelimit.Throttle
}

// Throttled wraps r so that every call first waits on t. Calls are spaced by
// t.Interval() no matter whether they come from one goroutine or many.
func Throttled(r Resolver, t *ratelimit.Throttle) Resolver {
	return &throttledResolver{next: r, throttle: t}
}

func (r *throttledResolver) Resolve(ctx context.Context, text string) ([]common.Candidate, error) {
	return ratelimit.Do(ctx, r.throttle, func(ctx context.Context) ([]common.Candidate, error) {
		return r.next.Resolve(ctx, text)
	})
}

// LabelFromLink derives a display label from a canonical link. For resource
// URIs such as http://dbpedia.org/resource/Russian_Federation the last path
// segment is unescaped and underscores become spaces. Anything that is not
// an absolute URL is returned unchanged.
func LabelFromLink(link string) string {
	link = strings.TrimSpace(link)
	u, err := url.Parse(link)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return link
	}

	segment := path.Base(strings.TrimSuffix(u.EscapedPath(), "/"))
	if segment == "." || segment == "/" || segment == "" {
		return link
	}
	if unescaped, err := url.PathUnescape(segment); err == nil {
		segment = unescaped
	}
	segment = strings.TrimSpace(strings.ReplaceAll(segment, "_", " "))
	if segment == "" {
		return link
	}
	return segment
}
