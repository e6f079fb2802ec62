package wallet

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	xerrors "PersonaChain/internal/errors"
	"PersonaChain/pkg/logger"
)

// Service 负责钱包的幂等创建与读取。并发的创建请求通过
// singleflight 合并，存储层的 PutIfAbsent 兜底保证唯一。
type Service struct {
	store Store
	group singleflight.Group
}

// NewService 创建钱包服务。
func NewService(store Store) *Service {
	return &Service{store: store}
}

type ensureResult struct {
	record  Record
	created bool
}

// EnsureWallet 返回 owner 与人格组合下的钱包，不存在时生成新密钥对
// 并写入。并发调用最终观察到同一条记录。
func (s *Service) EnsureWallet(ctx context.Context, owner, personaID string) (Record, bool, error) {
	key := StoreKey(owner, personaID)
	value, err, _ := s.group.Do(key, func() (any, error) {
		if existing, err := s.store.Get(ctx, owner, personaID); err == nil {
			return ensureResult{record: *existing}, nil
		} else if xerrors.CodeOf(err) != xerrors.CodeNotFound {
			return nil, err
		}

		record, err := generateRecord(owner, personaID)
		if err != nil {
			return nil, err
		}
		stored, created, err := s.store.PutIfAbsent(ctx, record)
		if err != nil {
			return nil, err
		}
		if created {
			logger.Audit().Info("wallet_created",
				"owner", owner,
				"persona", personaID,
				"address", stored.Address,
			)
		}
		return ensureResult{record: stored, created: created}, nil
	})
	if err != nil {
		return Record{}, false, err
	}
	result := value.(ensureResult)
	return result.record, result.created, nil
}

// Get 读取钱包记录，不存在时返回 CodeNotFound。
func (s *Service) Get(ctx context.Context, owner, personaID string) (*Record, error) {
	return s.store.Get(ctx, owner, personaID)
}

// SetBaseName 将已注册的 basename 写回钱包记录。
func (s *Service) SetBaseName(ctx context.Context, owner, personaID, baseName string) error {
	record, err := s.store.Get(ctx, owner, personaID)
	if err != nil {
		return err
	}
	record.BaseName = baseName
	return s.store.Update(ctx, *record)
}

// Addresses 返回一组人格的地址映射，用于在路由前丰富会话上下文。
// 不存在的钱包会被跳过。
func (s *Service) Addresses(ctx context.Context, owner string, personaIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(personaIDs))
	for _, personaID := range personaIDs {
		record, err := s.store.Get(ctx, owner, personaID)
		if err != nil {
			if xerrors.CodeOf(err) == xerrors.CodeNotFound {
				continue
			}
			return nil, err
		}
		out[record.PersonaID] = record.Address
	}
	return out, nil
}

func generateRecord(owner, personaID string) (Record, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return Record{}, xerrors.Wrap(xerrors.CodeChainFailure, err, "生成钱包密钥失败")
	}
	return Record{
		WalletID:   uuid.NewString(),
		Owner:      owner,
		PersonaID:  personaID,
		Address:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
		PrivateKey: hex.EncodeToString(crypto.FromECDSA(key)),
		CreatedAt:  time.Now().Unix(),
	}, nil
}
