package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kelplabs/pricebook/internal/actorcontext"
	auditdomain "github.com/kelplabs/pricebook/internal/audit/domain"
	"github.com/kelplabs/pricebook/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    auditdomain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    auditdomain.Repository
	metrics *metrics.Metrics
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("audit.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

// Append stamps and inserts the entries on the caller's transaction. Audit
// timestamps carry second precision.
func (s *Service) Append(ctx context.Context, tx *gorm.DB, entries ...auditdomain.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}

	now := time.Now().UTC().Truncate(time.Second)
	actor := actorcontext.ActorFromContext(ctx)

	for i := range entries {
		if entries[i].ID == 0 {
			entries[i].ID = s.genID.Generate()
		}
		if entries[i].Timestamp.IsZero() {
			entries[i].Timestamp = now
		}
		if entries[i].UserName == "" {
			entries[i].UserName = actor
		}
	}

	if err := s.repo.Insert(ctx, tx, entries); err != nil {
		s.log.Warn("failed to append audit entries", zap.Int("count", len(entries)), zap.Error(err))
		return err
	}

	if s.metrics != nil {
		for i := range entries {
			s.metrics.MutationsTotal.WithLabelValues(string(entries[i].Table), string(entries[i].ChangeType)).Inc()
		}
	}
	return nil
}

func (s *Service) Query(ctx context.Context, req auditdomain.QueryRequest) ([]auditdomain.AuditEntry, error) {
	if req.ChangeType != "" && !auditdomain.ValidChangeType(req.ChangeType) {
		return nil, auditdomain.ErrInvalidChangeType
	}
	if req.TableName != "" && !auditdomain.ValidTable(req.TableName) {
		return nil, auditdomain.ErrInvalidTable
	}
	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		return nil, auditdomain.ErrInvalidTimeRange
	}

	return s.repo.List(ctx, s.db, req)
}
