package repository

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"quiz-corpus/internal/domain"
	"quiz-corpus/internal/repository/models"
	"quiz-corpus/internal/util"

	"github.com/jmoiron/sqlx"
)

// Oracle rejects IN lists longer than 1000 expressions.
const quizChunkSize = 500

const (
	selectCandidateCompanies = `SELECT
		id "id",
		position "position",
		company_en "company_en",
		company_he "company_he",
		tags "tags",
		created_at "created_at"
	FROM companies
	WHERE id IN (SELECT company_id FROM company_tags WHERE tag_lower IN (?))
	OR id IN (SELECT company_id FROM quiz_tags WHERE tag_lower IN (?))
	OR id IN (SELECT company_id FROM quizzes WHERE CONTAINS(content, ?, 1) > 0)
	ORDER BY position`

	selectQuizzesByCompany = `SELECT
		id "id",
		company_id "company_id",
		position "position",
		source_quiz_id "source_quiz_id",
		title "title",
		tags "tags",
		content "content",
		forum_link "forum_link",
		process_details "process_details",
		interview_questions "interview_questions"
	FROM quizzes
	WHERE company_id IN (?)
	ORDER BY company_id, position`

	insertCompany = `INSERT INTO companies (
		id, position, company_en, company_he, tags, created_at
	) VALUES (:1, :2, :3, :4, :5, :6)`

	insertQuiz = `INSERT INTO quizzes (
		id, company_id, position, source_quiz_id, title, tags,
		content, forum_link, process_details, interview_questions
	) VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9, :10)`

	insertCompanyTag = `INSERT INTO company_tags (company_id, tag_lower) VALUES (:1, :2)`
	insertQuizTag    = `INSERT INTO quiz_tags (quiz_id, company_id, tag_lower) VALUES (:1, :2, :3)`
)

// Children first, so foreign keys hold.
var clearStatements = []string{
	`DELETE FROM quiz_tags`,
	`DELETE FROM company_tags`,
	`DELETE FROM quizzes`,
	`DELETE FROM companies`,
}

// CorpusDatabaseAdapter implements domain.CorpusRepository on Oracle.
type CorpusDatabaseAdapter struct {
	db DBTX
}

func NewCorpusDatabaseAdapter(db *sqlx.DB) domain.CorpusRepository {
	return &CorpusDatabaseAdapter{db: db}
}

// LockCorpus takes an exclusive table lock until the surrounding transaction ends.
// Outside a transaction the lock is released immediately, so callers must use WithTransaction.
func (a *CorpusDatabaseAdapter) LockCorpus(ctx context.Context) error {
	if _, err := GetExecutor(ctx, a.db).ExecContext(ctx, `LOCK TABLE companies IN EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("failed to lock corpus: %w", err)
	}
	return nil
}

func (a *CorpusDatabaseAdapter) CountCompanies(ctx context.Context) (int, error) {
	var count int
	if err := GetExecutor(ctx, a.db).GetContext(ctx, &count, `SELECT COUNT(*) FROM companies`); err != nil {
		return 0, fmt.Errorf("failed to count companies: %w", err)
	}
	return count, nil
}

func (a *CorpusDatabaseAdapter) ClearCorpus(ctx context.Context) error {
	exec := GetExecutor(ctx, a.db)
	for _, stmt := range clearStatements {
		if _, err := exec.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear corpus (%s): %w", stmt, err)
		}
	}
	return nil
}

// InsertCompanies writes companies in slice order, which becomes corpus order.
// It assigns IDs to the companies and quizzes it writes.
func (a *CorpusDatabaseAdapter) InsertCompanies(ctx context.Context, companies []*domain.Company) error {
	exec := GetExecutor(ctx, a.db)
	now := time.Now()

	for i, c := range companies {
		row := toModelCompany(c, i, now)
		if _, err := exec.ExecContext(ctx, insertCompany,
			row.ID, row.Position, row.CompanyEn, row.CompanyHe, row.Tags, row.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert company %q: %w", c.CompanyEn, err)
		}
		for _, tag := range domain.LowerTags(c.Tags) {
			if _, err := exec.ExecContext(ctx, insertCompanyTag, row.ID, tag); err != nil {
				return fmt.Errorf("failed to insert tag %q for company %q: %w", tag, c.CompanyEn, err)
			}
		}
		c.ID = row.ID

		for j, q := range c.Quizzes {
			qrow := toModelQuiz(q, row.ID, j)
			if _, err := exec.ExecContext(ctx, insertQuiz,
				qrow.ID, qrow.CompanyID, qrow.Position, qrow.SourceQuizID, qrow.Title, qrow.Tags,
				qrow.Content, qrow.ForumLink, qrow.ProcessDetails, qrow.InterviewQuestions,
			); err != nil {
				return fmt.Errorf("failed to insert quiz %d for company %q: %w", q.SourceQuizID, c.CompanyEn, err)
			}
			for _, tag := range domain.LowerTags(q.Tags) {
				if _, err := exec.ExecContext(ctx, insertQuizTag, qrow.ID, row.ID, tag); err != nil {
					return fmt.Errorf("failed to insert tag %q for quiz %d: %w", tag, q.SourceQuizID, err)
				}
			}
			q.ID = qrow.ID
		}
	}
	return nil
}

// FindCandidates returns, in corpus order and with all their quizzes, every company
// whose tags or quiz tags contain one of tagsLower or whose quiz text mentions one.
func (a *CorpusDatabaseAdapter) FindCandidates(ctx context.Context, tagsLower []string) ([]*domain.Company, error) {
	if len(tagsLower) == 0 {
		return []*domain.Company{}, nil
	}
	exec := GetExecutor(ctx, a.db)

	query, args, err := sqlx.In(selectCandidateCompanies, tagsLower, tagsLower, TextQuery(tagsLower))
	if err != nil {
		return nil, fmt.Errorf("failed to build candidate query: %w", err)
	}
	var companyRows []models.Company
	if err := exec.SelectContext(ctx, &companyRows, exec.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to select candidate companies: %w", err)
	}
	if len(companyRows) == 0 {
		return []*domain.Company{}, nil
	}

	companies := make([]*domain.Company, 0, len(companyRows))
	byID := make(map[string]*domain.Company, len(companyRows))
	ids := make([]string, 0, len(companyRows))
	for i := range companyRows {
		c := toDomainCompany(&companyRows[i])
		companies = append(companies, c)
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}

	for start := 0; start < len(ids); start += quizChunkSize {
		end := min(start+quizChunkSize, len(ids))
		query, args, err := sqlx.In(selectQuizzesByCompany, ids[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to build quiz query: %w", err)
		}
		var quizRows []models.Quiz
		if err := exec.SelectContext(ctx, &quizRows, exec.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("failed to select quizzes: %w", err)
		}
		for i := range quizRows {
			if c, ok := byID[quizRows[i].CompanyID]; ok {
				c.Quizzes = append(c.Quizzes, toDomainQuiz(&quizRows[i]))
			}
		}
	}
	return companies, nil
}

// TextQuery builds the Oracle Text query for tags, weighting content matches 10
// and process details / interview questions 5.
func TextQuery(tagsLower []string) string {
	terms := make([]string, 0, len(tagsLower))
	for _, tag := range tagsLower {
		if term := textTerm(tag); term != "" {
			terms = append(terms, "("+term+")")
		}
	}
	q := strings.Join(terms, " ACCUM ")
	return fmt.Sprintf("((%[1]s) WITHIN content)*10 ACCUM ((%[1]s) WITHIN process_details)*5 ACCUM ((%[1]s) WITHIN interview_questions)*5", q)
}

// textTerm renders a tag as a substring match. Short tags are matched exactly,
// since a short wildcard expands to too many index terms.
func textTerm(tag string) string {
	words := strings.Fields(tag)
	if len(words) == 0 {
		return ""
	}
	if len([]rune(tag)) < 3 {
		return "{" + strings.ReplaceAll(strings.Join(words, " "), "}", "}}") + "}"
	}
	for i, w := range words {
		words[i] = escapeTextWord(w)
	}
	return "%" + strings.Join(words, " ") + "%"
}

func escapeTextWord(w string) string {
	var b strings.Builder
	for _, r := range w {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsMark(r) {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func toModelCompany(c *domain.Company, position int, now time.Time) *models.Company {
	id := c.ID
	if id == "" {
		id = util.NewULID()
	}
	return &models.Company{
		ID:        id,
		Position:  position,
		CompanyEn: c.CompanyEn,
		CompanyHe: c.CompanyHe,
		Tags:      models.StringSlice(c.Tags),
		CreatedAt: now,
	}
}

func toModelQuiz(q *domain.Quiz, companyID string, position int) *models.Quiz {
	id := q.ID
	if id == "" {
		id = util.NewULID()
	}
	return &models.Quiz{
		ID:                 id,
		CompanyID:          companyID,
		Position:           position,
		SourceQuizID:       q.SourceQuizID,
		Title:              q.Title,
		Tags:               models.StringSlice(q.Tags),
		Content:            util.StringToNullString(q.Content),
		ForumLink:          util.StringToNullString(q.ForumLink),
		ProcessDetails:     util.StringToNullString(q.ProcessDetails),
		InterviewQuestions: util.StringToNullString(q.InterviewQuestions),
	}
}

func toDomainCompany(row *models.Company) *domain.Company {
	tags := []string(row.Tags)
	if tags == nil {
		tags = []string{}
	}
	return &domain.Company{
		ID:        row.ID,
		CompanyEn: row.CompanyEn,
		CompanyHe: row.CompanyHe,
		Tags:      tags,
		Quizzes:   []*domain.Quiz{},
	}
}

func toDomainQuiz(row *models.Quiz) *domain.Quiz {
	tags := []string(row.Tags)
	if tags == nil {
		tags = []string{}
	}
	return &domain.Quiz{
		ID:                 row.ID,
		Title:              row.Title,
		SourceQuizID:       row.SourceQuizID,
		Tags:               tags,
		Content:            row.Content.String,
		ForumLink:          row.ForumLink.String,
		ProcessDetails:     row.ProcessDetails.String,
		InterviewQuestions: row.InterviewQuestions.String,
	}
}
