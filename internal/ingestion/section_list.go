package ingestion

import (
	"fmt"
	"io"
	"os"
	"strings"

	"quiz-corpus/internal/domain"
	"quiz-corpus/internal/tagging"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const forumLinkSelector = `a.forum-link, a[href*="forum"]`

// SectionListParser reads a single document where every company is a heading
// followed by a list of quiz entries.
type SectionListParser struct {
	t tagger
}

func NewSectionListParser(classifier *tagging.Classifier, log *zap.Logger) *SectionListParser {
	return &SectionListParser{t: tagger{classifier: classifier, log: log}}
}

// ParseFile parses the document at path.
func (p *SectionListParser) ParseFile(path string) ([]*domain.Company, Stats, error) {
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
func (p *SectionListParser) Parse(source string, r io.Reader) ([]*domain.Company, Stats, error) {
	var stats Stats
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, stats, domain.NewIngestionIOError(source, fmt.Errorf("failed to parse html: %w", err))
	}
	breakLines(doc)

	headingSel := "h2"
	if doc.Find(headingSel).Length() == 0 {
		headingSel = "h3"
	}

	set := newCompanySet()
	doc.Find(headingSel).Each(func(_ int, heading *goquery.Selection) {
		raw := cleanText(heading.Text())
		if raw == "" {
			return
		}
		en, he := headingNames(heading)
		en, he = fillNames(en, he, raw)
		company := set.get(p.t, en, he)

		entries := heading.NextUntil(headingSel).Filter("ul, ol").ChildrenFiltered("li")
		entries.Each(func(_ int, li *goquery.Selection) {
			quiz, skipErr := p.parseEntry(doc, company, li)
			if skipErr != nil {
				stats.Skipped++
				p.t.skip(source, skipErr, zap.String("company", company.CompanyEn))
				return
			}
			stats.Records++
			company.Quizzes = append(company.Quizzes, quiz)
		})
	})

	return set.nonEmpty(), stats, nil
}

func headingNames(heading *goquery.Selection) (string, string) {
	en := cleanText(heading.Find("[lang='en']").First().Text())
	if en == "" {
		en = cleanText(heading.Find(".en").First().Text())
	}
	he := cleanText(heading.Find("[lang='he']").First().Text())
	if he == "" {
		he = cleanText(heading.Find(".he").First().Text())
	}
	return en, he
}

func (p *SectionListParser) parseEntry(doc *goquery.Document, company *domain.Company, li *goquery.Selection) (*domain.Quiz, *domain.DomainError) {
	anchor := li.Find("a[href]").First()
	if anchor.Length() == 0 {
		return nil, domain.NewParseSkipError("entry has no link")
	}
	title := cleanText(anchor.Text())
	if title == "" {
		return nil, domain.NewParseSkipError("entry has no title")
	}
	href, _ := anchor.Attr("href")
	id, ok := firstNumber(href)
	if !ok {
		return nil, domain.NewParseSkipError(fmt.Sprintf("no quiz id in link %q", href))
	}

	block := contentBlock(doc, li, href)
	var content, contentText string
	if block.Length() > 0 {
		html, err := block.Html()
		if err != nil {
			return nil, domain.NewParseSkipError(fmt.Sprintf("unreadable content block: %v", err))
		}
		content = strings.TrimSpace(html)
		contentText = cleanText(block.Text())
	}

	forum := block.Find(forumLinkSelector).First()
	if forum.Length() == 0 {
		forum = li.Find(forumLinkSelector).NotSelection(anchor).First()
	}
	forumLink, _ := forum.Attr("href")

	return &domain.Quiz{
		Title:        title,
		SourceQuizID: id,
		Tags:         p.t.quizTags(company.CompanyEn, company.CompanyHe, title, contentText),
		Content:      content,
		ForumLink:    strings.TrimSpace(forumLink),
	}, nil
}

// contentBlock finds the element the entry link points to, else a nested .quiz-content.
func contentBlock(doc *goquery.Document, li *goquery.Selection, href string) *goquery.Selection {
	if i := strings.IndexByte(href, '#'); i >= 0 && i < len(href)-1 {
		fragment := href[i+1:]
		target := doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			id, _ := s.Attr("id")
			return id == fragment
		}).First()
		if target.Length() > 0 {
			return target
		}
	}
	return li.Find(".quiz-content").First()
}
