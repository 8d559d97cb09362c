// Package retrieval downloads Applications and IT Components from a
// workspace GraphQL API in fixed-size pages.
package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/obsolescence-radar/pkg/factsheet"
	"github.com/dd0wney/obsolescence-radar/pkg/logging"
	"github.com/dd0wney/obsolescence-radar/pkg/metrics"
)

// DefaultPageSize is the number of fact sheets requested per page.
const DefaultPageSize = 15000

// Progress reports the download state of one fact sheet type.
type Progress struct {
	Type       factsheet.Kind
	TotalCount int
	Downloaded int
}

// ProgressFunc receives a Progress after every page. It may be called from
// several goroutines when both types download concurrently.
type ProgressFunc func(Progress)

// Page is one decoded allFactSheets page.
type Page[T any] struct {
	TotalCount  int
	HasNextPage bool
	EndCursor   string
	Items       []T
}

type pageData struct {
	AllFactSheets struct {
		TotalCount int `json:"totalCount"`
		PageInfo   struct {
			HasNextPage bool   `json:"hasNextPage"`
			EndCursor   string `json:"endCursor"`
		} `json:"pageInfo"`
		Edges []struct {
			Node factsheet.Record `json:"node"`
		} `json:"edges"`
	} `json:"allFactSheets"`
}

// Config configures a Fetcher.
type Config struct {
	PageSize int
	Logger   logging.Logger
	Metrics  *metrics.Registry
	Progress ProgressFunc
}

// Fetcher downloads fact sheets through an Executor.
type Fetcher struct {
	exec     Executor
	pageSize int
	logger   logging.Logger
	metrics  *metrics.Registry
	progress ProgressFunc
}

// NewFetcher creates a fetcher. Zero config values use defaults.
func NewFetcher(exec Executor, cfg Config) *Fetcher {
	f := &Fetcher{
		exec:     exec,
		pageSize: cfg.PageSize,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		progress: cfg.Progress,
	}
	if f.pageSize <= 0 {
		f.pageSize = DefaultPageSize
	}
	if f.logger == nil {
		f.logger = logging.NewNopLogger()
	}
	f.logger = f.logger.With(logging.Component("retrieval"))
	return f
}

// FetchPage requests one page starting after the given cursor and maps its
// records with mapFn.
func FetchPage[T any](ctx context.Context, exec Executor, query string, first int, after string, mapFn func(factsheet.Record) (T, error)) (Page[T], error) {
	vars := map[string]any{"first": first, "after": nil}
	if after != "" {
		vars["after"] = after
	}

	var page Page[T]
	raw, err := exec.Execute(ctx, query, vars)
	if err != nil {
		return page, err
	}
	var data pageData
	if err := json.Unmarshal(raw, &data); err != nil {
		return page, fmt.Errorf("decode page: %w", err)
	}

	conn := data.AllFactSheets
	page.TotalCount = conn.TotalCount
	page.HasNextPage = conn.PageInfo.HasNextPage
	page.EndCursor = conn.PageInfo.EndCursor
	page.Items = make([]T, 0, len(conn.Edges))
	for _, edge := range conn.Edges {
		item, err := mapFn(edge.Node)
		if err != nil {
			return page, err
		}
		page.Items = append(page.Items, item)
	}
	return page, nil
}

// FetchAll requests pages until the workspace reports no further page and
// returns every mapped record in order.
func FetchAll[T any](ctx context.Context, f *Fetcher, kind factsheet.Kind, query string, mapFn func(factsheet.Record) (T, error)) ([]T, error) {
	start := time.Now()
	log := f.logger.With(logging.FactSheetType(string(kind)))

	var (
		all   []T
		after string
	)
	for {
		page, err := FetchPage(ctx, f.exec, query, f.pageSize, after, mapFn)
		if err != nil {
			return nil, fmt.Errorf("fetch %s page after %q: %w", kind, after, err)
		}
		all = append(all, page.Items...)

		if f.metrics != nil {
			f.metrics.RecordRetrievalPage(string(kind), len(page.Items))
		}
		if f.progress != nil {
			f.progress(Progress{Type: kind, TotalCount: page.TotalCount, Downloaded: len(all)})
		}
		log.Debug("page fetched", logging.Count(len(page.Items)), logging.Int("downloaded", len(all)), logging.Int("total", page.TotalCount))

		if !page.HasNextPage {
			break
		}
		if page.EndCursor == "" || page.EndCursor == after {
			return nil, fmt.Errorf("fetch %s: next page announced without a new cursor", kind)
		}
		after = page.EndCursor
	}

	if f.metrics != nil {
		f.metrics.RecordRetrieval(string(kind), time.Since(start))
	}
	log.Info("fact sheets fetched", logging.Count(len(all)), logging.Latency(time.Since(start)))
	return all, nil
}

// FetchApplications downloads every Application.
func (f *Fetcher) FetchApplications(ctx context.Context) ([]*factsheet.Application, error) {
	return FetchAll(ctx, f, factsheet.KindApplication, applicationsQuery, factsheet.MapApplication)
}

// FetchITComponents downloads every IT Component.
func (f *Fetcher) FetchITComponents(ctx context.Context) ([]*factsheet.ITComponent, error) {
	return FetchAll(ctx, f, factsheet.KindITComponent, itComponentsQuery, factsheet.MapITComponent)
}

// FetchInventory downloads both fact sheet types concurrently. A failure of
// either cancels the other. Duplicate ids keep the last record.
func (f *Fetcher) FetchInventory(ctx context.Context) (*factsheet.Inventory, error) {
	var (
		apps  []*factsheet.Application
		comps []*factsheet.ITComponent
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		apps, err = f.FetchApplications(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		comps, err = f.FetchITComponents(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	inv := factsheet.NewInventory()
	for _, a := range apps {
		inv.Applications[a.ID] = a
	}
	for _, c := range comps {
		inv.ITComponents[c.ID] = c
	}
	inv.RetrievedAt = time.Now().UTC()
	return inv, nil
}
