// Package archive persists evolved levels in a SQLite database so later runs
// can start from them.
package archive

import (
	"errors"
	"fmt"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	gorm "gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pthm-cable/siege/genetic"
	"github.com/pthm-cable/siege/level"
)

// ErrNotFound is returned when a requested level does not exist.
var ErrNotFound = errors.New("level not found")

// Run is one generator run that contributed levels.
type Run struct {
	ID        string `gorm:"primaryKey"`
	Seed      int64
	Config    string
	CreatedAt time.Time
}

// LevelRecord is one stored level. Data holds the level as YAML.
type LevelRecord struct {
	ID         uint      `gorm:"primaryKey"`
	RunID      string    `gorm:"index"`
	Generation int
	Rank       int
	Fitness    float64   `gorm:"index"`
	Budget     int
	Columns    int
	Targets    int
	Data       string
	CreatedAt  time.Time
}

// Level decodes the stored level.
func (r LevelRecord) Level() (level.Genome, error) {
	g, err := level.Unmarshal([]byte(r.Data))
	if err != nil {
		return level.Genome{}, fmt.Errorf("decoding level %d: %w", r.ID, err)
	}
	return g, nil
}

// Archive is a level store backed by SQLite.
type Archive struct {
	DB *gorm.DB
}

// Open opens or creates the archive at path.
func Open(path string) (*Archive, error) {
	if path == "" {
		return nil, errors.New("archive path must be defined")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	db = db.Session(&gorm.Session{CreateBatchSize: 100})

	if err := db.AutoMigrate(&Run{}, &LevelRecord{}); err != nil {
		return nil, fmt.Errorf("migrating archive: %w", err)
	}
	return &Archive{DB: db}, nil
}

// Close releases the database handle.
func (a *Archive) Close() error {
	sqldb, err := a.DB.DB()
	if err != nil {
		return fmt.Errorf("retrieving raw DB: %w", err)
	}
	return sqldb.Close()
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// StartRun records a run and returns its identifier.
func (a *Archive) StartRun(seed int64, config []byte) (string, error) {
	run := Run{ID: NewRunID(), Seed: seed, Config: string(config)}
	if err := a.DB.Create(&run).Error; err != nil {
		return "", fmt.Errorf("creating run: %w", err)
	}
	return run.ID, nil
}

func newRecord(runID string, generation, rank int, fitness float64, g level.Genome) (LevelRecord, error) {
	data, err := level.Marshal(g)
	if err != nil {
		return LevelRecord{}, err
	}
	return LevelRecord{
		RunID:      runID,
		Generation: generation,
		Rank:       rank,
		Fitness:    fitness,
		Budget:     g.Budget,
		Columns:    len(g.Columns),
		Targets:    g.Count(level.KindTarget),
		Data:       string(data),
	}, nil
}

// SaveLevel stores one level and returns its ID.
func (a *Archive) SaveLevel(runID string, generation int, fitness float64, g level.Genome) (uint, error) {
	rec, err := newRecord(runID, generation, 0, fitness, g)
	if err != nil {
		return 0, err
	}
	if err := a.DB.Create(&rec).Error; err != nil {
		return 0, fmt.Errorf("saving level: %w", err)
	}
	return rec.ID, nil
}

// SaveRanked stores the first n genomes of a ranked population in one batch.
// Infeasible genomes are skipped.
func (a *Archive) SaveRanked(runID string, generation int, ranked []genetic.Genome[level.Genome], n int) (int, error) {
	if n > len(ranked) {
		n = len(ranked)
	}
	records := make([]LevelRecord, 0, n)
	for rank := 0; rank < n; rank++ {
		if ranked[rank].Fitness < 0 {
			continue
		}
		rec, err := newRecord(runID, generation, rank, ranked[rank].Fitness, ranked[rank].Genes)
		if err != nil {
			return 0, err
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return 0, nil
	}
	if err := a.DB.Create(&records).Error; err != nil {
		return 0, fmt.Errorf("saving ranked levels: %w", err)
	}
	return len(records), nil
}

// Levels returns every stored level in insertion order.
func (a *Archive) Levels() ([]LevelRecord, error) {
	var records []LevelRecord
	if err := a.DB.Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("listing levels: %w", err)
	}
	return records, nil
}

// BestLevels returns up to limit levels by descending fitness. Ties keep
// insertion order.
func (a *Archive) BestLevels(limit int) ([]LevelRecord, error) {
	var records []LevelRecord
	if err := a.DB.Order("fitness desc").Order("id").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("listing best levels: %w", err)
	}
	return records, nil
}

// Level returns the level with the given ID.
func (a *Archive) Level(id uint) (LevelRecord, error) {
	var rec LevelRecord
	err := a.DB.First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return LevelRecord{}, fmt.Errorf("level %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return LevelRecord{}, fmt.Errorf("loading level %d: %w", id, err)
	}
	return rec, nil
}

// Runs returns every recorded run, oldest first.
func (a *Archive) Runs() ([]Run, error) {
	var runs []Run
	if err := a.DB.Order("created_at").Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// LoadAllSeeds decodes every stored level in insertion order.
func (a *Archive) LoadAllSeeds() ([]level.Genome, error) {
	records, err := a.Levels()
	if err != nil {
		return nil, err
	}
	seeds := make([]level.Genome, 0, len(records))
	for _, rec := range records {
		g, err := rec.Level()
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, g)
	}
	return seeds, nil
}
