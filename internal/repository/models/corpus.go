package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StringSlice is a []string stored as a JSON array in a CLOB column.
type StringSlice []string

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	jsonData, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil
}

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	var bytesToParse []byte
	switch v := value.(type) {
	case []byte:
		bytesToParse = v
	case string:
		bytesToParse = []byte(v)
	default:
		return errors.New("StringSlice Scan: unsupported type " + fmt.Sprintf("%T", value))
	}

	if len(bytesToParse) == 0 || string(bytesToParse) == "null" {
		*s = StringSlice{}
		return nil
	}
	return json.Unmarshal(bytesToParse, s)
}

// Company is a row of the companies table.
type Company struct {
	ID        string      `db:"id"`
	Position  int         `db:"position"`
	CompanyEn string      `db:"company_en"`
	CompanyHe string      `db:"company_he"`
	Tags      StringSlice `db:"tags"`
	CreatedAt time.Time   `db:"created_at"`
}

// Quiz is a row of the quizzes table.
type Quiz struct {
	ID                 string         `db:"id"`
	CompanyID          string         `db:"company_id"`
	Position           int            `db:"position"`
	SourceQuizID       int64          `db:"source_quiz_id"`
	Title              string         `db:"title"`
	Tags               StringSlice    `db:"tags"`
	Content            sql.NullString `db:"content"`
	ForumLink          sql.NullString `db:"forum_link"`
	ProcessDetails     sql.NullString `db:"process_details"`
	InterviewQuestions sql.NullString `db:"interview_questions"`
}
