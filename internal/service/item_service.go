package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"kukey/backend/internal/dto"
	"kukey/backend/internal/repository"
)

// ── 道具商店业务错误 ──

var (
	ErrItemCategoryUnknown = errors.New("未知的道具品类")
	ErrItemMetadataMissing = errors.New("道具参数缺失或非法")
	ErrItemPointMismatch   = errors.New("道具价格与服务端价目表不一致")
	ErrCharacterNotFound   = errors.New("角色信息不存在")
	ErrCharacterMaxLevel   = errors.New("角色已达最高等级")
)

// 道具品类
const (
	ItemCategoryReadingTicket       = "READING_TICKET"        // 课程评价阅读券
	ItemCategoryCharacterEvolution  = "CHARACTER_EVOLUTION"   // 角色进化
	ItemCategoryCharacterTypeChange = "CHARACTER_TYPE_CHANGE" // 角色类型变更
)

// ── 服务端价目表 ──
// 客户端展示价仅用于复核，真实价格一律以此为准（防篡改）

// 阅读券：按天数定价
var readingTicketPrices = map[int]int{
	3:  100,
	7:  210,
	30: 750,
}

// 角色进化：按目标等级定价（1 级为初始等级，不可购买）
var characterEvolutionPrices = map[int]int{
	2: 100,
	3: 200,
	4: 350,
	5: 500,
}

// 角色类型变更：一口价
const characterTypeChangePrice = 300

// 可选角色类型
var allowedCharacterTypes = map[string]bool{
	"tiger":    true,
	"rabbit":   true,
	"squirrel": true,
}

// ── ItemService 接口 ──────────────────────────────────────
//
// 设计说明：
//   - 购买 = 价格复核 → 道具效果落库 → 积分扣减，三步在同一事务内；
//     扣款失败（如余额不足）时效果一并回滚，不存在"给了道具没扣钱"。
//   - 每个品类一个效果函数，按品类分派；响应只填对应品类的字段。
// ─────────────────────────────────────────────────────────────

// ItemService 道具商店业务接口
type ItemService interface {
	// Purchase 购买道具并应用效果
	Purchase(ctx context.Context, userID string, req *dto.PurchaseItemRequest) (*dto.PurchaseItemResponse, error)
}

type itemService struct {
	repo   *repository.Repository
	point  PointService
	logger *zap.Logger
}

// NewItemService 创建 ItemService 实例
func NewItemService(repo *repository.Repository, point PointService, logger *zap.Logger) ItemService {
	return &itemService{repo: repo, point: point, logger: logger}
}

func (s *itemService) Purchase(ctx context.Context, userID string, req *dto.PurchaseItemRequest) (*dto.PurchaseItemResponse, error) {
	resp := &dto.PurchaseItemResponse{}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var cost int
		var description string
		var err error

		switch req.ItemCategory {
		case ItemCategoryReadingTicket:
			cost, description, err = s.applyReadingTicket(ctx, tx, userID, req, resp)
		case ItemCategoryCharacterEvolution:
			cost, description, err = s.applyCharacterEvolution(ctx, tx, userID, req, resp)
		case ItemCategoryCharacterTypeChange:
			cost, description, err = s.applyCharacterTypeChange(ctx, tx, userID, req, resp)
		default:
			return ErrItemCategoryUnknown
		}
		if err != nil {
			return err
		}

		// 扣款失败（余额不足等）时整个事务回滚，效果不保留
		remaining, err := s.point.AdjustInTx(ctx, tx, userID, -cost, description)
		if err != nil {
			return err
		}
		resp.RemainingPoint = remaining
		return nil
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// applyReadingTicket 延长课程评价阅读权：从 max(now, 当前到期时间) 起加 days 天
func (s *itemService) applyReadingTicket(ctx context.Context, tx *repository.Repository, userID string, req *dto.PurchaseItemRequest, resp *dto.PurchaseItemResponse) (int, string, error) {
	if req.Days <= 0 {
		return 0, "", ErrItemMetadataMissing
	}
	cost, ok := readingTicketPrices[req.Days]
	if !ok {
		return 0, "", ErrItemMetadataMissing
	}
	if req.RequiredPoints != cost {
		return 0, "", ErrItemPointMismatch
	}

	user, err := tx.User.GetByIDForUpdate(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, "", ErrUserNotFound
		}
		return 0, "", err
	}

	base := time.Now()
	if user.ViewableUntil != nil && user.ViewableUntil.After(base) {
		base = *user.ViewableUntil
	}
	until := base.AddDate(0, 0, req.Days)

	if err := tx.User.UpdateViewableUntil(ctx, userID, until); err != nil {
		return 0, "", err
	}

	resp.ViewableUntil = until.Format(time.RFC3339)
	return cost, fmt.Sprintf("Reading course reviews - %d days", req.Days), nil
}

// applyCharacterEvolution 角色升 1 级，价格按目标等级查表
func (s *itemService) applyCharacterEvolution(ctx context.Context, tx *repository.Repository, userID string, req *dto.PurchaseItemRequest, resp *dto.PurchaseItemResponse) (int, string, error) {
	character, err := tx.Character.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, "", ErrCharacterNotFound
		}
		return 0, "", err
	}

	newLevel := character.Level + 1
	cost, ok := characterEvolutionPrices[newLevel]
	if !ok {
		return 0, "", ErrCharacterMaxLevel
	}
	if req.RequiredPoints != cost {
		return 0, "", ErrItemPointMismatch
	}

	if err := tx.Character.UpdateLevel(ctx, character.CharacterID, newLevel); err != nil {
		return 0, "", err
	}

	resp.UpgradeLevel = newLevel
	return cost, fmt.Sprintf("Evolving characters level %d", newLevel), nil
}

// applyCharacterTypeChange 变更角色类型，一口价
func (s *itemService) applyCharacterTypeChange(ctx context.Context, tx *repository.Repository, userID string, req *dto.PurchaseItemRequest, resp *dto.PurchaseItemResponse) (int, string, error) {
	if !allowedCharacterTypes[req.NewCharacterType] {
		return 0, "", ErrItemMetadataMissing
	}
	if req.RequiredPoints != characterTypeChangePrice {
		return 0, "", ErrItemPointMismatch
	}

	character, err := tx.Character.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, "", ErrCharacterNotFound
		}
		return 0, "", err
	}

	if err := tx.Character.UpdateType(ctx, character.CharacterID, req.NewCharacterType); err != nil {
		return 0, "", err
	}

	resp.NewCharacterType = req.NewCharacterType
	return characterTypeChangePrice, "Changing character types", nil
}
