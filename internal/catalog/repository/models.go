package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/narwhalmedia/watchlist/internal/catalog/domain"
	"github.com/narwhalmedia/watchlist/pkg/database"
	"github.com/narwhalmedia/watchlist/pkg/errors"
)

// TitleModel is the row shape of the titles table.
type TitleModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"not null;uniqueIndex:idx_titles_name_year,priority:1"`
	Kind        string    `gorm:"not null;index"`
	ReleaseYear int       `gorm:"not null;uniqueIndex:idx_titles_name_year,priority:2"`
	Genre       string
	UserRating  float64 `gorm:"not null;default:0"`
	Status      string  `gorm:"not null;index"`
	Progress    int     `gorm:"not null;default:0"`
	TotalUnits  int     `gorm:"not null;default:1"`
	Description string  `gorm:"type:text"`
	CreatedAt   time.Time
}

// TableName specifies the table name for TitleModel
func (TitleModel) TableName() string {
	return "titles"
}

// BeforeCreate generates UUID before creating
func (m *TitleModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func toModel(t domain.Title) *TitleModel {
	return &TitleModel{
		Name:        t.Name,
		Kind:        string(t.Kind),
		ReleaseYear: t.ReleaseYear,
		Genre:       t.Genre,
		UserRating:  t.UserRating,
		Status:      string(t.Status),
		Progress:    t.Progress,
		TotalUnits:  t.TotalUnits,
		Description: t.Description,
	}
}

// toDomain fails with StorageCorrupt when an enum column holds an unknown label.
func (m TitleModel) toDomain() (domain.Title, error) {
	kind, err := domain.ParseKind(m.Kind)
	if err != nil {
		return domain.Title{}, errors.StorageCorrupt("invalid kind in row "+m.ID.String(), err)
	}
	status, err := domain.ParseStatus(m.Status)
	if err != nil {
		return domain.Title{}, errors.StorageCorrupt("invalid status in row "+m.ID.String(), err)
	}
	return domain.Title{
		Name:        m.Name,
		Kind:        kind,
		ReleaseYear: m.ReleaseYear,
		Genre:       m.Genre,
		UserRating:  m.UserRating,
		Status:      status,
		Progress:    m.Progress,
		TotalUnits:  m.TotalUnits,
		Description: m.Description,
	}, nil
}

// Migrations returns the schema history of the titles table.
func Migrations() []database.MigrationEntry {
	return []database.MigrationEntry{
		{
			Version: "20250601_001",
			Name:    "Create titles table",
			Up: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&TitleModel{})
			},
		},
	}
}
