package rowcheck

import (
	"path"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type DatabaseLocation string

const (
	INMEMORY_DATABASE DatabaseLocation = ":memory:"
)

type Repository interface {
	WithTransaction(fn func(*gorm.DB) error) error
	Close() error
	connect() (*gorm.DB, error)
}

type repository struct {
	db *gorm.DB

	location string
	config   *gorm.Config
	models   []any
}

// do whatever within a separate withTransaction
func (r *repository) WithTransaction(fn func(conn *gorm.DB) error) error {
	if _, err := r.connect(); err != nil {
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

func (r *repository) connect() (*gorm.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := gorm.Open(sqlite.Open(r.location), r.config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database connection")
	}

	// every connection would get its own in-memory database
	if r.location == string(INMEMORY_DATABASE) {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "failed to access database connection")
		}
		sqlDB.SetMaxOpenConns(1)
	}

	db = db.Exec("PRAGMA foreign_keys = ON")
	if err := db.AutoMigrate(r.models...); err != nil {
		return nil, errors.Wrap(err, "failed to migrate models")
	}
	r.db = db

	return db, nil
}

func (r *repository) Close() error {
	if r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	r.db = nil
	return sqlDB.Close()
}

type reportRepo struct {
	Repository
}

// Add reports with their diagnostics
func (r *reportRepo) addReport(reports ...*Report) error {
	return r.WithTransaction(func(conn *gorm.DB) error {
		if err := conn.CreateInBatches(reports, 100).Error; err != nil {
			return errors.Wrap(err, "failed to create report")
		}
		return nil
	})
}

// Retrieve reports, newest first. A run id of "" returns every run
func (r *reportRepo) getReports(runID string) ([]*Report, error) {
	var reports []*Report
	err := r.WithTransaction(func(conn *gorm.DB) error {
		q := conn.Preload("Diagnostics", func(db *gorm.DB) *gorm.DB {
			return db.Order("row_index ASC")
		})
		if runID != "" {
			q = q.Where("run_id = ?", runID)
		}
		if err := q.Order("id DESC").Find(&reports).Error; err != nil {
			return errors.Wrap(err, "failed to find reports")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// Deletes all reports in the database
func (r *reportRepo) deleteReports() error {
	return r.WithTransaction(func(conn *gorm.DB) error {
		q := conn.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := q.Unscoped().Delete(&Diagnostic{}).Error; err != nil {
			return errors.Wrap(err, "failed to delete diagnostics")
		}
		if err := q.Unscoped().Delete(&Report{}).Error; err != nil {
			return errors.Wrap(err, "failed to delete reports")
		}
		return nil
	})
}

type repositoryBuilder struct {
	home     string
	location string
	config   *gorm.Config
	models   []any
}

func newRepositoryBuilder(home string) *repositoryBuilder {
	return &repositoryBuilder{
		home: home,
		config: &gorm.Config{
			SkipDefaultTransaction: true,
			PrepareStmt:            true,
		},
	}
}

func (b *repositoryBuilder) setLocation(name string) *repositoryBuilder {
	b.location = name
	return b
}

func (b *repositoryBuilder) setName(n string) *repositoryBuilder {
	switch b.home {
	case "-":
		return b.setLocation(string(INMEMORY_DATABASE))
	default:
		return b.setLocation(path.Join(b.home, n))
	}
}

func (b *repositoryBuilder) setModels(m []any) *repositoryBuilder {
	b.models = m
	return b
}

func (b *repositoryBuilder) reset() {
	b.models = nil
	b.location = ""
}

func (b *repositoryBuilder) build() *repository {
	repo := &repository{
		config:   b.config,
		location: b.location,
		models:   b.models,
	}
	defer b.reset()
	return repo
}

// Reports repository in the given home. "-" keeps it in memory
func newReportRepo(home string) *reportRepo {
	repo := newRepositoryBuilder(home).
		setModels([]any{&Report{}, &Diagnostic{}}).
		setName("reports.db").
		build()
	return &reportRepo{repo}
}
