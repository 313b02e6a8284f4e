package ingestion

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"quiz-corpus/internal/domain"
	"quiz-corpus/internal/tagging"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const companyLinkSelector = `a[href*="/company/"]`

var (
	hebrewRoleAtCompany = regexp.MustCompile(`ראיון(?:\s+עבודה)?\s+לתפקיד\s+(.+?)\s+בחברת\s+\S`)
	hebrewRoleTrailing  = regexp.MustCompile(`ראיון(?:\s+עבודה)?\s+לתפקיד\s+(.+?)\s+ב\S+(?:\s*[-–,(].*)?\s*$`)
	englishRole         = regexp.MustCompile(`(?i)interview\s+for\s+(?:the\s+|an?\s+)?(.+?)\s+(?:(?:role|position)\s+)?at\s+\S`)
)

// TableBlockParser reads documents where each quiz is its own table.
type TableBlockParser struct {
	t tagger
}

func NewTableBlockParser(classifier *tagging.Classifier, log *zap.Logger) *TableBlockParser {
	return &TableBlockParser{t: tagger{classifier: classifier, log: log}}
}

// ParseDir parses every .html file in dir using up to workers goroutines.
// Results keep file-name order and are merged by company.
// A file that cannot be read is logged and counted as skipped; an unreadable
// directory fails the whole source.
func (p *TableBlockParser) ParseDir(ctx context.Context, dir string, workers int) ([]*domain.Company, Stats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, Stats{}, domain.NewIngestionIOError(dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".html") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}

	if workers <= 0 {
		workers = 1
	}
	results := make([][]*domain.Company, len(files))
	fileStats := make([]Stats, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			companies, stats, err := p.ParseFile(path)
			if err != nil {
				p.t.log.Error("Failed to parse table block file", zap.String("file", path), zap.Error(err))
				fileStats[i] = Stats{Skipped: 1}
				return nil
			}
			results[i] = companies
			fileStats[i] = stats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	var total Stats
	for _, s := range fileStats {
		total.add(s)
	}
	merged, rejected := Merge(results...)
	for _, r := range rejected {
		p.t.skip(dir, domain.NewParseSkipError(r.Err.Error()), zap.String("title", r.Title))
	}
	total.Skipped += len(rejected)
	return merged, total, nil
}

// ParseFile parses a single document.
func (p *TableBlockParser) ParseFile(path string) ([]*domain.Company, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, domain.NewIngestionIOError(path, err)
	}
	defer f.Close()

	companies, stats, err := p.Parse(path, f)
	if err != nil {
		return nil, stats, err
	}
	stats.Files = 1
	return companies, stats, nil
}

// Parse reads companies from r. source only labels log lines.
func (p *TableBlockParser) Parse(source string, r io.Reader) ([]*domain.Company, Stats, error) {
	var stats Stats
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, stats, domain.NewIngestionIOError(source, fmt.Errorf("failed to parse html: %w", err))
	}
	breakLines(doc)

	tables := doc.Find("table.interview")
	if tables.Length() == 0 {
		tables = doc.Find("table").Has(companyLinkSelector)
	}

	set := newCompanySet()
	tables.Each(func(_ int, table *goquery.Selection) {
		if err := p.parseTable(set, table); err != nil {
			stats.Skipped++
			p.t.skip(source, err)
			return
		}
		stats.Records++
	})
	return set.nonEmpty(), stats, nil
}

func (p *TableBlockParser) parseTable(set *companySet, table *goquery.Selection) *domain.DomainError {
	link := table.Find(companyLinkSelector).First()
	href, _ := link.Attr("href")
	en, he, ok := companyFromPath(href)
	if !ok {
		return domain.NewParseSkipError("table has no company link")
	}

	title := cleanText(table.Find(".title").First().Text())
	if title == "" {
		title = cleanText(table.Find("caption").First().Text())
	}
	if title == "" {
		title = cleanText(link.Text())
	}
	if title == "" {
		return domain.NewParseSkipError("table has no title")
	}
	id := TitleHash(title)
	if id == 0 {
		return domain.NewParseSkipError(fmt.Sprintf("title %q hashes to zero", title))
	}

	process, questions := labeledRows(table)
	content := joinBlocks(title, process, questions)

	var extra []string
	role := JobRole(title)
	if role != "" {
		extra = append(extra, role)
	}

	company := set.get(p.t, en, he)
	company.Quizzes = append(company.Quizzes, &domain.Quiz{
		Title:              title,
		SourceQuizID:       id,
		Tags:               p.t.quizTags(company.CompanyEn, company.CompanyHe, title, content, extra...),
		Content:            content,
		ProcessDetails:     process,
		InterviewQuestions: questions,
	})
	return nil
}

// companyFromPath reads /company/<en-slug>/<he-name> out of a link.
func companyFromPath(href string) (string, string, bool) {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", "", false
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		if seg != "company" {
			continue
		}
		var en, he string
		if i+1 < len(segments) {
			en = slugName(segments[i+1])
		}
		if i+2 < len(segments) {
			he = slugName(segments[i+2])
		}
		switch {
		case en == "" && he == "":
			return "", "", false
		case en == "":
			en = he
		case he == "":
			he = en
		}
		return en, he, true
	}
	return "", "", false
}

func slugName(seg string) string {
	if unescaped, err := url.PathUnescape(seg); err == nil {
		seg = unescaped
	}
	return cleanText(strings.NewReplacer("-", " ", "_", " ").Replace(seg))
}

// JobRole pulls the role out of titles like "ראיון עבודה לתפקיד <role> בחברת <company>"
// or "Interview for the <role> position at <company>". Returns "" when there is none.
func JobRole(title string) string {
	for _, re := range []*regexp.Regexp{hebrewRoleAtCompany, hebrewRoleTrailing, englishRole} {
		if m := re.FindStringSubmatch(title); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// labeledRows returns the process-details and interview-questions rows of a table.
func labeledRows(table *goquery.Selection) (string, string) {
	var process, questions []string
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("th, td")
		if cells.Length() < 2 {
			return
		}
		label := strings.ToLower(cleanText(cells.First().Text()))
		var values []string
		cells.Slice(1, goquery.ToEnd).Each(func(_ int, cell *goquery.Selection) {
			if v := cleanLines(cell.Text()); v != "" {
				values = append(values, v)
			}
		})
		value := strings.Join(values, "\n")
		if value == "" {
			return
		}
		switch {
		case strings.Contains(label, "שאלות") || strings.Contains(label, "שאלה") || strings.Contains(label, "question"):
			questions = append(questions, value)
		case strings.Contains(label, "תהליך") || strings.Contains(label, "process"):
			process = append(process, value)
		}
	})
	return strings.Join(process, "\n"), strings.Join(questions, "\n")
}
