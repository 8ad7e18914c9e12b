package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()
)

const (
	fieldPath      = "path"
	queryPath      = "path = ?"
	queryPathBelow = "substr(path, 1, ?) = ?"
	orderPathAsc   = "path ASC"
)

// DocumentRecord is the row backing one document.
type DocumentRecord struct {
	Path             string `gorm:"column:path;primaryKey;size:1024;not null"`
	ValueJSON        string `gorm:"column:value_json;type:text;not null"`
	UpdatedAtSeconds int64  `gorm:"column:updated_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (DocumentRecord) TableName() string {
	return "documents"
}

// GormConfig describes the dependencies of a GormStore.
type GormConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

var _ Store = (*GormStore)(nil)

// GormStore keeps documents in a single SQL table through GORM.
type GormStore struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewGormStore validates the configuration and returns a GormStore.
func NewGormStore(cfg GormConfig) (*GormStore, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opStoreNew, reasonMissingDatabase, errMissingDatabase)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &GormStore{db: cfg.Database, clock: clock, logger: logger}, nil
}

// Get returns the document stored at path.
func (store *GormStore) Get(ctx context.Context, path Path) (Document, error) {
	if err := store.ready(opGet); err != nil {
		return Document{}, err
	}
	if path == "" {
		return Document{}, newServiceError(opGet, reasonInvalidPath, ErrInvalidPath)
	}

	var record DocumentRecord
	err := store.db.WithContext(ctx).Where(queryPath, path.String()).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Document{}, newServiceError(opGet, reasonNotFound, ErrNotFound)
	}
	if err != nil {
		store.logError(opGet, reasonQueryFailed, err, zap.String(fieldPath, path.String()))
		return Document{}, newServiceError(opGet, reasonQueryFailed, err)
	}
	return record.document(), nil
}

// Set upserts the document at path.
func (store *GormStore) Set(ctx context.Context, path Path, value json.RawMessage) error {
	if err := store.ready(opSet); err != nil {
		return err
	}
	if path == "" {
		return newServiceError(opSet, reasonInvalidPath, ErrInvalidPath)
	}
	if err := validateValue(value); err != nil {
		return newServiceError(opSet, reasonInvalidValue, err)
	}

	record := DocumentRecord{
		Path:             path.String(),
		ValueJSON:        string(value),
		UpdatedAtSeconds: store.clock().UTC().Unix(),
	}
	err := store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: fieldPath}},
			DoUpdates: clause.AssignmentColumns([]string{"value_json", "updated_at_s"}),
		}).
		Create(&record).Error
	if err != nil {
		store.logError(opSet, reasonWriteFailed, err, zap.String(fieldPath, path.String()))
		return newServiceError(opSet, reasonWriteFailed, err)
	}
	return nil
}

// Delete removes the document at path if it exists.
func (store *GormStore) Delete(ctx context.Context, path Path) error {
	if err := store.ready(opDelete); err != nil {
		return err
	}
	if path == "" {
		return newServiceError(opDelete, reasonInvalidPath, ErrInvalidPath)
	}
	if err := store.db.WithContext(ctx).Where(queryPath, path.String()).Delete(&DocumentRecord{}).Error; err != nil {
		store.logError(opDelete, reasonWriteFailed, err, zap.String(fieldPath, path.String()))
		return newServiceError(opDelete, reasonWriteFailed, err)
	}
	return nil
}

// List returns every document below prefix ordered by path. The prefix match is
// case-sensitive, unlike SQLite's LIKE.
func (store *GormStore) List(ctx context.Context, prefix Path) ([]Document, error) {
	if err := store.ready(opList); err != nil {
		return nil, err
	}
	if prefix == "" {
		return nil, newServiceError(opList, reasonInvalidPath, ErrInvalidPath)
	}

	base := prefix.String() + pathSeparator
	var records []DocumentRecord
	err := store.db.WithContext(ctx).
		Where(queryPathBelow, utf8.RuneCountInString(base), base).
		Order(orderPathAsc).
		Find(&records).Error
	if err != nil {
		store.logError(opList, reasonQueryFailed, err, zap.String(fieldPath, prefix.String()))
		return nil, newServiceError(opList, reasonQueryFailed, err)
	}

	documents := make([]Document, 0, len(records))
	for _, record := range records {
		documents = append(documents, record.document())
	}
	return documents, nil
}

func (record DocumentRecord) document() Document {
	return Document{
		Path:             Path(record.Path),
		Value:            json.RawMessage(record.ValueJSON),
		UpdatedAtSeconds: record.UpdatedAtSeconds,
	}
}

func (store *GormStore) ready(operation string) error {
	if store == nil || store.db == nil {
		store.logError(operation, reasonMissingDatabase, errMissingDatabase)
		return newServiceError(operation, reasonMissingDatabase, errMissingDatabase)
	}
	return nil
}

func (store *GormStore) loggerOrDefault() *zap.Logger {
	if store == nil || store.logger == nil {
		return noOpLogger
	}
	return store.logger
}

func (store *GormStore) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	store.loggerOrDefault().Error("document store error", attrs...)
}
