package zotero

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultBaseURL  = "https://api.zotero.org"
	DefaultPageSize = 100
	apiVersion      = "3"
)

var ErrLibraryType = errors.New("library type must be user or group")

// Library reads the top-level items of a Zotero user or group library.
type Library struct {
	ID       string
	Type     string
	APIKey   string
	BaseURL  string
	PageSize int
	Client   *http.Client
}

func NewLibrary(id, libraryType, apiKey string) (*Library, error) {
	if libraryType != "user" && libraryType != "group" {
		return nil, fmt.Errorf("%w: %q", ErrLibraryType, libraryType)
	}
	if id == "" {
		return nil, errors.New("library id is required")
	}
	return &Library{
		ID:       id,
		Type:     libraryType,
		APIKey:   apiKey,
		BaseURL:  DefaultBaseURL,
		PageSize: DefaultPageSize,
		Client:   http.DefaultClient,
	}, nil
}

type item struct {
	Key  string         `json:"key"`
	Data map[string]any `json:"data"`
}

// TopItems fetches the data object of every top-level item, following
// pagination until the library is exhausted.
func (l *Library) TopItems(ctx context.Context) ([]map[string]any, error) {
	var items []map[string]any
	for start := 0; ; {
		page, total, err := l.fetchPage(ctx, start)
		if err != nil {
			return nil, err
		}
		for _, it := range page {
			if it.Data == nil {
				it.Data = map[string]any{}
			}
			if _, ok := it.Data["key"]; !ok {
				it.Data["key"] = it.Key
			}
			items = append(items, it.Data)
		}
		start += len(page)
		if len(page) < l.PageSize || (total >= 0 && start >= total) {
			return items, nil
		}
	}
}

func (l *Library) fetchPage(ctx context.Context, start int) ([]item, int, error) {
	endpoint, err := url.JoinPath(l.BaseURL, l.Type+"s", l.ID, "items", "top")
	if err != nil {
		return nil, 0, fmt.Errorf("building zotero url: %w", err)
	}
	query := url.Values{}
	query.Set("format", "json")
	query.Set("limit", strconv.Itoa(l.PageSize))
	query.Set("start", strconv.Itoa(start))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("building zotero request: %w", err)
	}
	req.Header.Set("Zotero-API-Version", apiVersion)
	if l.APIKey != "" {
		req.Header.Set("Zotero-API-Key", l.APIKey)
	}

	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching zotero items: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, 0, fmt.Errorf("fetching zotero items: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var page []item
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, 0, fmt.Errorf("decoding zotero items: %w", err)
	}
	total := -1
	if header := resp.Header.Get("Total-Results"); header != "" {
		if n, err := strconv.Atoi(header); err == nil {
			total = n
		}
	}
	return page, total, nil
}

// WriteCSV fetches the library and writes it as a CSV export in the layout
// ReadCSV expects.
func (l *Library) WriteCSV(ctx context.Context, w io.Writer) (int, error) {
	items, err := l.TopItems(ctx)
	if err != nil {
		return 0, err
	}
	if err := WriteItems(w, items); err != nil {
		return 0, err
	}
	return len(items), nil
}

// WriteItems flattens API items and writes them as CSV. The Key column comes
// first; the remaining columns are sorted.
func WriteItems(w io.Writer, items []map[string]any) error {
	rows := make([]map[string]string, 0, len(items))
	columns := map[string]struct{}{}
	for _, data := range items {
		row := Flatten(data)
		for column := range row {
			columns[column] = struct{}{}
		}
		rows = append(rows, row)
	}
	delete(columns, KeyColumn)

	header := []string{KeyColumn}
	for column := range columns {
		header = append(header, column)
	}
	slices.Sort(header[1:])

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, row := range rows {
		record := make([]string, len(header))
		for i, column := range header {
			record[i] = row[column]
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// Flatten turns one item's data object into export columns. Creators become
// Author, tags become Manual Tags and date becomes Publication Year.
func Flatten(data map[string]any) map[string]string {
	row := make(map[string]string, len(data))
	for key, value := range data {
		switch key {
		case "creators":
			row[NormalizeHeader("author")] = flattenCreators(value)
		case "tags":
			row[NormalizeHeader("manualTags")] = flattenTags(value)
		case "date":
			row[NormalizeHeader("publicationYear")] = stringValue(value)
		default:
			row[NormalizeHeader(key)] = stringValue(value)
		}
	}
	return row
}

func flattenCreators(value any) string {
	list, _ := value.([]any)
	names := make([]string, 0, len(list))
	for _, entry := range list {
		creator, _ := entry.(map[string]any)
		if name, ok := creator["name"].(string); ok {
			names = append(names, name)
			continue
		}
		last, _ := creator["lastName"].(string)
		first, _ := creator["firstName"].(string)
		names = append(names, last+", "+first)
	}
	return strings.Join(names, ";")
}

func flattenTags(value any) string {
	list, _ := value.([]any)
	tags := make([]string, 0, len(list))
	for _, entry := range list {
		tag, _ := entry.(map[string]any)
		if text, ok := tag["tag"].(string); ok {
			tags = append(tags, text)
		}
	}
	return strings.Join(tags, "; ")
}

func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	}
}

var camelBoundary = regexp.MustCompile(`([a-z0-9_])([A-Z])`)

// NormalizeHeader converts an API field name into an export column name,
// e.g. "abstractNote" to "Abstract Note".
func NormalizeHeader(name string) string {
	if name == "" {
		return name
	}
	spaced := camelBoundary.ReplaceAllString(name, "$1 $2")
	r, size := utf8.DecodeRuneInString(spaced)
	return string(unicode.ToUpper(r)) + spaced[size:]
}
