package metrics

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/yatube/models"
)

// Collector periodically publishes the row counts of the site tables.
type Collector struct {
	DB       *gorm.DB
	Interval time.Duration
	Logger   *zap.Logger
}

// Run collects once immediately and then every Interval until ctx is done.
func (c *Collector) Run(ctx context.Context) error {
	interval := c.Interval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := c.Collect(ctx); err != nil {
			logger.Warn("collecting table metrics failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Collect counts every table once.
func (c *Collector) Collect(ctx context.Context) error {
	for _, model := range []any{&models.User{}, &models.Group{}, &models.Post{}, &models.Comment{}, &models.Follow{}} {
		if err := c.collectTableCount(ctx, model); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) collectTableCount(ctx context.Context, model any) error {
	stmt := &gorm.Statement{DB: c.DB}
	if err := stmt.Parse(model); err != nil {
		return fmt.Errorf("parse model: %w", err)
	}
	table := stmt.Schema.Table

	var count int64
	if err := c.DB.WithContext(ctx).Model(model).Count(&count).Error; err != nil {
		return fmt.Errorf("count %s: %w", table, err)
	}
	tableCount.WithLabelValues(table).Set(float64(count))
	return nil
}
