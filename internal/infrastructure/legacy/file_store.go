package legacy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"guias/internal/domain/guide"
	"guias/internal/errs"
	"guias/internal/ports"
)

const (
	dirPayloadName  = "datos.json"
	htmlGuidePrefix = "guia_"
	payloadAttr     = "data-guia"
)

// FileStore reads the per-guide files that predate the entry table.
// Supported shapes: guia_<id>.html, <id>.html, <id>.json and <id>/datos.json.
type FileStore struct {
	dir  string
	conv guide.Converter
}

var _ ports.LegacyEntrySource = (*FileStore)(nil)

func NewFileStore(dir string, conv guide.Converter) *FileStore {
	return &FileStore{dir: dir, conv: conv}
}

func (s *FileStore) Dir() string {
	return s.dir
}

type loadResult struct {
	record ports.EntryRecord
	err    error
}

// Load returns as soon as ctx is done, even when the file system is slow.
func (s *FileStore) Load(ctx context.Context, guideID string) (ports.EntryRecord, error) {
	if ctx == nil {
		return ports.EntryRecord{}, errors.New("context is required")
	}
	if err := guide.ValidateGuideID(guideID); err != nil {
		return ports.EntryRecord{}, ports.ErrRecordNotFound
	}
	if strings.TrimSpace(s.dir) == "" {
		return ports.EntryRecord{}, ports.ErrRecordNotFound
	}

	done := make(chan loadResult, 1)
	go func() {
		record, err := s.load(guideID)
		done <- loadResult{record: record, err: err}
	}()

	select {
	case <-ctx.Done():
		return ports.EntryRecord{}, errs.Wrapf(ctx.Err(), "load legacy guide %s", guideID)
	case res := <-done:
		return res.record, res.err
	}
}

func (s *FileStore) candidates(guideID string) []string {
	return []string{
		filepath.Join(s.dir, htmlGuidePrefix+guideID+".html"),
		filepath.Join(s.dir, guideID+".html"),
		filepath.Join(s.dir, guideID+".json"),
		filepath.Join(s.dir, guideID, dirPayloadName),
	}
}

func (s *FileStore) load(guideID string) (ports.EntryRecord, error) {
	for _, path := range s.candidates(guideID) {
		content, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return ports.EntryRecord{}, errs.Wrapf(err, "read %s", path)
		}

		raw, err := decodePayload(path, content)
		if err != nil {
			return ports.EntryRecord{}, errs.Wrapf(err, "decode %s", path)
		}
		return toEntryRecord(guideID, raw, s.conv), nil
	}
	return ports.EntryRecord{}, ports.ErrRecordNotFound
}

// Scan lists every guide id present in the legacy directory, sorted.
func (s *FileStore) Scan(ctx context.Context) ([]string, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errs.Wrapf(err, "read legacy dir %s", s.dir)
	}

	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		id, ok := guideIDFromName(s.dir, entry)
		if !ok {
			continue
		}
		if guide.ValidateGuideID(id) != nil {
			continue
		}
		seen[id] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func guideIDFromName(dir string, entry os.DirEntry) (string, bool) {
	name := entry.Name()
	if entry.IsDir() {
		if _, err := os.Stat(filepath.Join(dir, name, dirPayloadName)); err != nil {
			return "", false
		}
		return name, true
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".html":
		return strings.TrimPrefix(strings.TrimSuffix(name, filepath.Ext(name)), htmlGuidePrefix), true
	case ".json":
		return strings.TrimSuffix(name, filepath.Ext(name)), true
	default:
		return "", false
	}
}

func decodePayload(path string, content []byte) (guide.Record, error) {
	payload := content
	if strings.EqualFold(filepath.Ext(path), ".html") {
		extracted, err := extractHTMLPayload(content)
		if err != nil {
			return nil, err
		}
		payload = extracted
	}

	var values map[string]any
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()
	if err := decoder.Decode(&values); err != nil {
		return nil, errs.Wrap(err, "decode json payload")
	}
	return stringify(values), nil
}

// extractHTMLPayload finds the JSON embedded in a <script type="application/json"> element
// or in a data-guia attribute.
func extractHTMLPayload(content []byte) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, errs.Wrap(err, "parse html")
	}

	var found []byte
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode {
			if n.Data == "script" && attr(n, "type") == "application/json" && n.FirstChild != nil {
				found = []byte(strings.TrimSpace(n.FirstChild.Data))
				return
			}
			if value := attr(n, payloadAttr); value != "" {
				found = []byte(value)
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	if len(found) == 0 {
		return nil, errors.New("no embedded guide payload")
	}
	return found, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func stringify(values map[string]any) guide.Record {
	out := make(guide.Record, len(values))
	for key, value := range values {
		out[key] = stringValue(value)
	}
	return out
}

func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
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
