package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"markline/backend/internal/dto"
	"markline/backend/internal/model"
	"markline/backend/internal/repository"
)

var (
	ErrBadLevels       = errors.New("levels must be an ascending subset of set, box, pallet, container")
	ErrBadTransition   = errors.New("order status transition not allowed")
	ErrPackageNotFound = errors.New("no such registered package")
)

// OrderService is the admin surface for orders and their passes.
type OrderService interface {
	Create(ctx context.Context, req *dto.CreateOrderRequest) (*dto.OrderResponse, []dto.PassResponse, error)
	Get(ctx context.Context, id uint) (*dto.OrderResponse, error)
	List(ctx context.Context, offset, limit int) ([]dto.OrderResponse, int64, error)
	Activate(ctx context.Context, id uint) error
	Close(ctx context.Context, id uint) error
	Passes(ctx context.Context, orderID uint) ([]dto.PassResponse, error)
	Aggregations(ctx context.Context, orderID uint) ([]model.Aggregation, error)
	DeletePackage(ctx context.Context, orderID uint, parentCode string) (int64, error)
}

type orderService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewOrderService creates the OrderService.
func NewOrderService(repo *repository.Repository, logger *zap.Logger) OrderService {
	return &orderService{repo: repo, logger: logger}
}

func (s *orderService) Create(ctx context.Context, req *dto.CreateOrderRequest) (*dto.OrderResponse, []dto.PassResponse, error) {
	if err := validateLevels(req.Levels); err != nil {
		return nil, nil, err
	}

	order := &model.Order{
		Client:        req.Client,
		Levels:        model.StringArray(req.Levels),
		EmployeeCount: req.EmployeeCount,
		SetCapacity:   req.SetCapacity,
		Status:        model.OrderStatusNew,
	}
	if err := s.repo.Order.Create(ctx, order); err != nil {
		s.logger.Error("create order failed", zap.Error(err))
		return nil, nil, err
	}

	// one badge per employee; the first minted pass is the shift-senior
	passes := make([]*model.Pass, 0, req.EmployeeCount)
	for i := 0; i < req.EmployeeCount; i++ {
		passes = append(passes, &model.Pass{
			OrderID:     order.ID,
			AccessToken: uuid.NewString(),
			Active:      true,
		})
	}
	if err := s.repo.Pass.BatchCreate(ctx, passes); err != nil {
		s.logger.Error("create passes failed", zap.Uint("order_id", order.ID), zap.Error(err))
		return nil, nil, err
	}

	s.logger.Info("order created",
		zap.Uint("order_id", order.ID),
		zap.String("client", order.Client),
		zap.Int("passes", len(passes)),
	)

	passViews := make([]dto.PassResponse, 0, len(passes))
	for i, p := range passes {
		passViews = append(passViews, passView(p, i == 0))
	}
	view := orderView(order)
	return &view, passViews, nil
}

func (s *orderService) Get(ctx context.Context, id uint) (*dto.OrderResponse, error) {
	order, err := s.repo.Order.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := orderView(order)
	return &view, nil
}

func (s *orderService) List(ctx context.Context, offset, limit int) ([]dto.OrderResponse, int64, error) {
	orders, total, err := s.repo.Order.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	views := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		views = append(views, orderView(&orders[i]))
	}
	return views, total, nil
}

func (s *orderService) Activate(ctx context.Context, id uint) error {
	return s.transition(ctx, id, model.OrderStatusNew, model.OrderStatusActive)
}

func (s *orderService) Close(ctx context.Context, id uint) error {
	return s.transition(ctx, id, model.OrderStatusActive, model.OrderStatusClosed)
}

func (s *orderService) transition(ctx context.Context, id uint, from, to string) error {
	order, err := s.repo.Order.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if order.Status != from {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, order.Status, to)
	}
	if err := s.repo.Order.UpdateStatus(ctx, id, to); err != nil {
		return err
	}
	s.logger.Info("order status changed", zap.Uint("order_id", id), zap.String("status", to))
	return nil
}

func (s *orderService) Passes(ctx context.Context, orderID uint) ([]dto.PassResponse, error) {
	if _, err := s.repo.Order.GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	passes, err := s.repo.Pass.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	views := make([]dto.PassResponse, 0, len(passes))
	for i := range passes {
		views = append(views, passView(&passes[i], i == 0))
	}
	return views, nil
}

func (s *orderService) Aggregations(ctx context.Context, orderID uint) ([]model.Aggregation, error) {
	if _, err := s.repo.Order.GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.repo.Aggregation.ListByOrder(ctx, orderID)
}

func (s *orderService) DeletePackage(ctx context.Context, orderID uint, parentCode string) (int64, error) {
	removed, err := s.repo.Aggregation.DeleteByParent(ctx, orderID, parentCode)
	if err != nil {
		return 0, err
	}
	if removed == 0 {
		return 0, ErrPackageNotFound
	}
	s.logger.Info("package removed by admin",
		zap.Uint("order_id", orderID),
		zap.String("parent", parentCode),
		zap.Int64("rows", removed),
	)
	return removed, nil
}

// validateLevels accepts an ascending subset of the aggregation levels
// above product.
func validateLevels(levels []string) error {
	prev := model.LevelProduct
	for _, raw := range levels {
		l := model.Level(raw)
		if !l.Valid() || l == model.LevelProduct {
			return ErrBadLevels
		}
		if !l.Above(prev) {
			return ErrBadLevels
		}
		prev = l
	}
	if len(levels) == 0 {
		return ErrBadLevels
	}
	return nil
}

func orderView(o *model.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:            o.ID,
		Client:        o.Client,
		Levels:        []string(o.Levels),
		EmployeeCount: o.EmployeeCount,
		SetCapacity:   o.SetCapacity,
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
	}
}

func passView(p *model.Pass, senior bool) dto.PassResponse {
	return dto.PassResponse{
		ID:          p.ID,
		AccessToken: p.AccessToken,
		Active:      p.Active,
		Name:        p.Name,
		IsSenior:    senior,
	}
}
