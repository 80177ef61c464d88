package sheets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/claude/repcycle/internal/ingest"
	"github.com/claude/repcycle/internal/models"
	"github.com/claude/repcycle/internal/observability"
)

// FetchError reports a sheet that could not be downloaded. Any FetchError
// aborts the whole load.
type FetchError struct {
	Group      models.Group
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch %s sheet: status %d", e.Group, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch %s sheet: %v", e.Group, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher downloads the published CSV export of each group's sheet.
type Fetcher struct {
	urls       map[models.Group]string
	httpClient *http.Client
	log        *slog.Logger
	now        func() time.Time
}

// NewFetcher creates a Fetcher for the given per-group sheet URLs.
func NewFetcher(urls map[models.Group]string, log *slog.Logger) *Fetcher {
	return &Fetcher{
		urls: urls,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
		now: time.Now,
	}
}

// FetchTable downloads and parses one sheet. A cache-busting query parameter
// is added so the publishing service never serves a stale export.
func (f *Fetcher) FetchTable(ctx context.Context, group models.Group) (*Table, error) {
	start := f.now()
	t, err := f.fetchTable(ctx, group)
	observability.RecordSheetFetch(group.String(), f.now().Sub(start), err)
	return t, err
}

func (f *Fetcher) fetchTable(ctx context.Context, group models.Group) (*Table, error) {
	raw, ok := f.urls[group]
	if !ok || raw == "" {
		return nil, &FetchError{Group: group, Err: fmt.Errorf("no sheet URL configured")}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, &FetchError{Group: group, URL: raw, Err: fmt.Errorf("parsing sheet URL: %w", err)}
	}
	q := u.Query()
	q.Set("_", strconv.FormatInt(f.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	f.log.Debug("fetching sheet", "group", group, "url", raw)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &FetchError{Group: group, URL: raw, Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Group: group, URL: raw, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{Group: group, URL: raw, StatusCode: resp.StatusCode}
	}

	t, err := Parse(resp.Body)
	if err != nil {
		return nil, &FetchError{Group: group, URL: raw, Err: fmt.Errorf("parsing CSV: %w", err)}
	}
	if t.Dropped > 0 {
		f.log.Debug("skipped malformed rows", "group", group, "rows", t.Dropped)
		observability.RecordRowsDropped(group.String(), t.Dropped)
	}
	return t, nil
}

// FetchAll downloads every group's sheet concurrently. The snapshot is only
// built once all three succeed; the first failure cancels the others and is
// returned.
func (f *Fetcher) FetchAll(ctx context.Context) (*models.Snapshot, *ingest.Result, error) {
	start := f.now()
	tables := make([]*Table, len(models.Groups))

	grp, ctx := errgroup.WithContext(ctx)
	for i, g := range models.Groups {
		grp.Go(func() error {
			t, err := f.FetchTable(ctx, g)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, nil, err
	}

	byGroup := make(map[models.Group][]models.Session, len(models.Groups))
	result := &ingest.Result{}
	for i, g := range models.Groups {
		sessions := Sessions(tables[i], g)
		byGroup[g] = sessions

		gr := ingest.GroupResult{
			Group:       g.String(),
			RowsRead:    len(sessions),
			RowsDropped: tables[i].Dropped,
		}
		for _, s := range sessions {
			if s.Completed {
				gr.Completed++
			} else {
				gr.Remaining++
			}
		}
		result.Groups = append(result.Groups, gr)
	}

	snap := models.NewSnapshot(f.now(), byGroup)
	result.LoadID = snap.LoadID.String()
	result.DurationMs = f.now().Sub(start).Milliseconds()
	return snap, result, nil
}
