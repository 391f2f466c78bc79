// Package storage persists runs and their samples in a SQL database through
// gorm: SQLite for local use, Postgres for shared archives.
package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/san-kum/epicycle/internal/config"
	"github.com/san-kum/epicycle/internal/linalg"
	"github.com/san-kum/epicycle/internal/sim"
	"github.com/san-kum/epicycle/internal/vehicle"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Run is one stored propagation. Config holds the scenario that produced
// it, Metrics the final metric values.
type Run struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	CreatedAt  time.Time      `json:"createdAt"`
	Name       string         `gorm:"size:127;index" json:"name"`
	Integrator string         `gorm:"size:31" json:"integrator"`
	Models     string         `gorm:"size:255" json:"models"`
	Steps      uint64         `json:"steps"`
	Rejected   int            `json:"rejected"`
	Events     int            `json:"events"`
	Config     datatypes.JSON `json:"config"`
	Metrics    datatypes.JSON `json:"metrics"`
}

// Sample is one sampled composite state of a run.
type Sample struct {
	ID             uint    `gorm:"primarykey"`
	RunID          uint    `gorm:"index"`
	N              uint64  `gorm:"not null"`
	T              float64 `gorm:"index"`
	RX, RY, RZ     float64
	QW, QX, QY, QZ float64
	VX, VY, VZ     float64
	WX, WY, WZ     float64
	Mass           float64
}

var tables = []interface{}{
	&Run{},
	&Sample{},
}

type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

// Open connects to the database. dsn is a file path (or "file::memory:")
// for sqlite and a libpq connection string for postgres.
func Open(driver, dsn string, log zerolog.Logger) (*Store, error) {
	gcfg := &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	}

	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite, "":
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	log.Debug().Str("driver", driver).Msg("connected to database")
	return &Store{db: db, log: log}, nil
}

func (s *Store) Init() error {
	return s.db.AutoMigrate(tables...)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save stores the run and its samples in one transaction and returns the
// new run id.
func (s *Store) Save(cfg *config.Config, result *sim.Result) (uint, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return 0, err
	}
	metricsJSON, err := json.Marshal(result.Metrics)
	if err != nil {
		return 0, err
	}

	run := Run{
		Name:       cfg.Name,
		Integrator: cfg.Integrator,
		Models:     strings.Join(cfg.Models, ","),
		Steps:      result.Steps,
		Rejected:   result.Rejected,
		Events:     result.Events,
		Config:     datatypes.JSON(cfgJSON),
		Metrics:    datatypes.JSON(metricsJSON),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return err
		}
		if len(result.Samples) == 0 {
			return nil
		}
		rows := make([]Sample, len(result.Samples))
		for i, smp := range result.Samples {
			rows[i] = fromSample(run.ID, smp)
		}
		return tx.CreateInBatches(rows, 2000).Error
	})
	if err != nil {
		return 0, fmt.Errorf("save run: %w", err)
	}
	s.log.Info().Uint("run", run.ID).Str("name", run.Name).Int("samples", len(result.Samples)).Msg("run stored")
	return run.ID, nil
}

func (s *Store) List() ([]Run, error) {
	var runs []Run
	if err := s.db.Order("id").Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *Store) Load(id uint) (*Run, error) {
	var run Run
	if err := s.db.First(&run, id).Error; err != nil {
		return nil, fmt.Errorf("run %d: %w", id, err)
	}
	return &run, nil
}

func (s *Store) LoadSamples(id uint) ([]sim.Sample, error) {
	var rows []Sample
	if err := s.db.Where("run_id = ?", id).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]sim.Sample, len(rows))
	for i, r := range rows {
		out[i] = r.toSample()
	}
	return out, nil
}

// Delete removes a run and its samples.
func (s *Store) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&Sample{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Run{}, id).Error
	})
}

// Scenario decodes the stored configuration.
func (r *Run) Scenario() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if err := json.Unmarshal(r.Config, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *Run) MetricValues() (map[string]float64, error) {
	m := make(map[string]float64)
	if len(r.Metrics) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(r.Metrics, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func fromSample(run uint, s sim.Sample) Sample {
	sys := s.System
	return Sample{
		RunID: run,
		N:     s.N,
		T:     s.T,
		RX:    sys.R[0],
		RY:    sys.R[1],
		RZ:    sys.R[2],
		QW:    sys.Q[0],
		QX:    sys.Q[1],
		QY:    sys.Q[2],
		QZ:    sys.Q[3],
		VX:    sys.V[0],
		VY:    sys.V[1],
		VZ:    sys.V[2],
		WX:    sys.W[0],
		WY:    sys.W[1],
		WZ:    sys.W[2],
		Mass:  s.Mass,
	}
}

func (r Sample) toSample() sim.Sample {
	return sim.Sample{
		N: r.N,
		T: r.T,
		System: vehicle.System{
			R: linalg.Vec{r.RX, r.RY, r.RZ},
			Q: linalg.Quat{r.QW, r.QX, r.QY, r.QZ},
			V: linalg.Vec{r.VX, r.VY, r.VZ},
			W: linalg.Vec{r.WX, r.WY, r.WZ},
		},
		Mass: r.Mass,
	}
}
