package index

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/starford/laguz/internal/models"
)

// Engine evaluates search strings against the note graph.
type Engine struct {
	db     *DB
	logger *slog.Logger
}

// NewEngine creates a query engine over db.
func NewEngine(db *DB, logger *slog.Logger) *Engine {
	return &Engine{db: db, logger: logger}
}

// FindNotesWithQuery returns the notes matching query under sc, best match first
// unless sc.OrderBy says otherwise.
func (e *Engine) FindNotesWithQuery(ctx context.Context, query string, sc models.SearchContext) ([]models.SearchResult, error) {
	q, err := parseQuery(query)
	if err != nil {
		return nil, err
	}
	if len(q.attrs) == 0 && len(q.terms) == 0 {
		return nil, nil
	}

	notes, err := e.db.AllNotes(ctx)
	if err != nil {
		return nil, err
	}

	// Content hits per term; skipped entirely for fast search.
	contentHits := make([]map[string]struct{}, len(q.terms))
	if !sc.FastSearch {
		for i, term := range q.terms {
			if contentHits[i], err = e.db.SearchContent(ctx, term); err != nil {
				return nil, err
			}
		}
	}

	titleOf := func(id string) string {
		if n, ok := notes[id]; ok {
			return n.Title
		}
		return ""
	}

	var ancestorFilter func(*models.Note) bool
	if sc.AncestorNoteID != "" && sc.AncestorNoteID != models.RootNoteID {
		ancestorFilter, err = depthFilter(notes, sc.AncestorNoteID, sc.AncestorDepth)
		if err != nil {
			return nil, err
		}
	}

	type hit struct {
		note  *models.Note
		score float64
	}
	var hits []hit

	for _, n := range notes {
		if !sc.IncludeArchivedNotes && n.HasLabel("archived") {
			continue
		}
		if ancestorFilter != nil && !ancestorFilter(n) {
			continue
		}
		ok := true
		for _, c := range q.attrs {
			if !c.matches(n, sc.FuzzyAttributeSearch, titleOf) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		score := float64(len(q.attrs))
		for i, term := range q.terms {
			s := termScore(n, term, contentHits[i])
			if s == 0 {
				ok = false
				break
			}
			score += s
		}
		if !ok {
			continue
		}
		hits = append(hits, hit{note: n, score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		if hits[i].note.Title != hits[j].note.Title {
			return hits[i].note.Title < hits[j].note.Title
		}
		return hits[i].note.ID < hits[j].note.ID
	})
	if sc.OrderBy != "" {
		key := orderKey(sc.OrderBy)
		desc := strings.EqualFold(sc.OrderDirection, "desc")
		sort.SliceStable(hits, func(i, j int) bool {
			a, b := key(hits[i].note), key(hits[j].note)
			if desc {
				return a > b
			}
			return a < b
		})
	}
	if sc.Limit > 0 && len(hits) > sc.Limit {
		hits = hits[:sc.Limit]
	}

	out := make([]models.SearchResult, len(hits))
	for i, h := range hits {
		out[i] = models.SearchResult{NoteID: h.note.ID, Score: h.score}
	}

	if sc.Debug {
		e.logger.Info("search: debug",
			slog.String("query", query),
			slog.String("expression", q.String()),
			slog.Int("candidates", len(notes)),
			slog.Int("matches", len(out)))
	}
	return out, nil
}

// termScore ranks a full-text term: title hits weigh most, then attributes, then content.
func termScore(n *models.Note, term string, content map[string]struct{}) float64 {
	var s float64
	if strings.Contains(strings.ToLower(n.Title), term) {
		s += 2
	}
	for _, a := range n.AllAttributes() {
		if strings.Contains(strings.ToLower(a.Name), term) || strings.Contains(strings.ToLower(a.Value), term) {
			s += 1
			break
		}
	}
	if _, ok := content[n.ID]; ok {
		s += 0.5
	}
	return s
}

// depthFilter keeps notes below ancestor within the requested depth.
// depth is "" (any), or one of eqN, ltN, gtN.
func depthFilter(notes map[string]*models.Note, ancestor, depth string) (func(*models.Note) bool, error) {
	cmp := func(int) bool { return true }
	if depth != "" {
		if len(depth) < 3 {
			return nil, fmt.Errorf("%w: bad ancestor depth %q", ErrInvalidQuery, depth)
		}
		n, err := strconv.Atoi(depth[2:])
		if err != nil {
			return nil, fmt.Errorf("%w: bad ancestor depth %q", ErrInvalidQuery, depth)
		}
		switch depth[:2] {
		case "eq":
			cmp = func(d int) bool { return d == n }
		case "lt":
			cmp = func(d int) bool { return d < n }
		case "gt":
			cmp = func(d int) bool { return d > n }
		default:
			return nil, fmt.Errorf("%w: bad ancestor depth %q", ErrInvalidQuery, depth)
		}
	}
	return func(n *models.Note) bool {
		d := distance(notes, n, ancestor)
		return d > 0 && cmp(d)
	}, nil
}

// distance returns the number of branch hops from n up to ancestor, or -1.
func distance(notes map[string]*models.Note, n *models.Note, ancestor string) int {
	seen := map[string]struct{}{n.ID: {}}
	frontier := n.ParentIDs
	for d := 1; len(frontier) > 0; d++ {
		var next []string
		for _, id := range frontier {
			if id == ancestor {
				return d
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			if p, ok := notes[id]; ok {
				next = append(next, p.ParentIDs...)
			}
		}
		frontier = next
	}
	return -1
}

func orderKey(orderBy string) func(*models.Note) string {
	switch orderBy {
	case "title":
		return func(n *models.Note) string { return strings.ToLower(n.Title) }
	case "dateCreated":
		return func(n *models.Note) string { return n.DateCreated.UTC().Format("2006-01-02T15:04:05.000000000") }
	case "dateModified":
		return func(n *models.Note) string { return n.DateModified.UTC().Format("2006-01-02T15:04:05.000000000") }
	case "noteId":
		return func(n *models.Note) string { return n.ID }
	}
	label := strings.TrimPrefix(orderBy, "#")
	return func(n *models.Note) string { return n.LabelValue(label) }
}
