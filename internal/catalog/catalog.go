// Package catalog seeds the course table from a YAML file at startup.
package catalog

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/admitd-dev/admitd/internal/models"
)

// Entry is one course in the seed file
type Entry struct {
	Name             string `yaml:"name"`
	ShortDescription string `yaml:"short_description"`
	Duration         string `yaml:"duration"`
	Fee              int64  `yaml:"fee"`
}

// File is the seed file layout
type File struct {
	Courses []Entry `yaml:"courses"`
}

// Load reads and validates a catalog seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	for i, entry := range file.Courses {
		if entry.Name == "" {
			return nil, fmt.Errorf("catalog entry %d: name is required", i)
		}
		if entry.Fee < 0 {
			return nil, fmt.Errorf("catalog entry %q: fee must not be negative", entry.Name)
		}
	}

	return &file, nil
}

// Sync upserts catalog entries into the courses table by name. Courses added
// by admins through the API are left untouched.
func Sync(db *gorm.DB, file *File, logger zerolog.Logger) error {
	for _, entry := range file.Courses {
		course := models.Course{
			Name:             entry.Name,
			ShortDescription: entry.ShortDescription,
			Duration:         entry.Duration,
			Fee:              entry.Fee,
		}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"short_description", "duration", "fee"}),
		}).Create(&course).Error
		if err != nil {
			return fmt.Errorf("seed course %q: %w", entry.Name, err)
		}
	}

	logger.Info().Int("courses", len(file.Courses)).Msg("Course catalog synced")
	return nil
}
