package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hamed0406/climatewatch/internal/domain"
)

// ArchiveDays is how far back the history passthrough reaches.
const ArchiveDays = 14

// maxArchiveBody caps the passthrough body; 14 days of hourly data is ~20 KB.
const maxArchiveBody = 1 << 20

// Archive fetches historical hourly observations and returns the raw JSON.
type Archive struct {
	BaseURL string
	Client  *http.Client
	now     func() time.Time
}

func NewArchive(baseURL string, timeout time.Duration) *Archive {
	if baseURL == "" {
		baseURL = DefaultArchiveURL
	}
	return &Archive{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

func (a *Archive) Fetch(ctx context.Context, loc domain.Location) ([]byte, error) {
	end := a.now().UTC().AddDate(0, 0, -1)
	start := end.AddDate(0, 0, -(ArchiveDays - 1))

	q := url.Values{}
	q.Set("latitude", formatCoord(loc.Latitude))
	q.Set("longitude", formatCoord(loc.Longitude))
	q.Set("start_date", start.Format(time.DateOnly))
	q.Set("end_date", end.Format(time.DateOnly))
	q.Set("hourly", "temperature_2m,relative_humidity_2m")
	q.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrFetchFailed, err)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: archive status %d", ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArchiveBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read archive body: %v", ErrFetchFailed, err)
	}
	return body, nil
}
