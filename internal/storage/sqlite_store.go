package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/camuig/alphastream/internal/portfolio"
)

const documentName = "default"

// SQLiteStore persists the profile document as a single versioned row and
// exposes the audit Repository sharing the same database.
type SQLiteStore struct {
	db *gorm.DB
	*Repository
}

func NewSQLiteStore(db *gorm.DB) *SQLiteStore {
	return &SQLiteStore{db: db, Repository: NewRepository(db)}
}

// OpenSQLiteStore opens (and migrates) the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := NewDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", portfolio.ErrStoreUnavailable, err)
	}
	return NewSQLiteStore(db), nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*portfolio.Document, error) {
	var row DocumentRow
	err := s.db.WithContext(ctx).Where("name = ?", documentName).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return portfolio.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load document: %v", portfolio.ErrStoreUnavailable, err)
	}

	doc, err := portfolio.Decode(strings.NewReader(row.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", portfolio.ErrStoreUnavailable, err)
	}
	doc.Revision = row.Revision
	return doc, nil
}

// Save writes doc if nobody else saved since it was loaded, then advances
// doc.Revision.
func (s *SQLiteStore) Save(ctx context.Context, doc *portfolio.Document) error {
	next := doc.Revision + 1

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row DocumentRow
		err := tx.Where("name = ?", documentName).First(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = DocumentRow{Name: documentName}
		case err != nil:
			return fmt.Errorf("%w: read revision: %v", portfolio.ErrStoreUnavailable, err)
		}

		if row.Revision != doc.Revision {
			return fmt.Errorf("%w: stored revision %d, loaded %d",
				portfolio.ErrRevisionConflict, row.Revision, doc.Revision)
		}

		body, err := encode(doc, next)
		if err != nil {
			return err
		}
		row.Revision = next
		row.Body = body
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("%w: write document: %v", portfolio.ErrStoreUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	doc.Revision = next
	return nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// encode renders doc as it will look once saved at revision rev.
func encode(doc *portfolio.Document, rev int64) (string, error) {
	snapshot := *doc
	snapshot.Revision = rev
	var buf bytes.Buffer
	if err := portfolio.Encode(&buf, &snapshot); err != nil {
		return "", err
	}
	return buf.String(), nil
}
